package render

import (
	"errors"
	"fmt"
	"strings"

	"kuliahbot/app/model"
	"kuliahbot/app/service/reminder"
	"kuliahbot/app/service/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is a Markdown reply. Menu asks the transport to attach the main menu.
type Message struct {
	Text string
	Menu bool
}

type MenuItem struct {
	Label string
	Data  string
}

var MainMenu = []MenuItem{
	{"📊 Hitung Nilai", model.MenuAverage},
	{"🔤 Nilai Huruf", model.MenuLetter},
	{"🏆 Nilai Max & Min", model.MenuMinMax},
	{"⏰ Tambah Reminder", model.MenuAddReminder},
	{"📋 List Reminder", model.MenuListReminders},
	{"🗑️ Hapus Reminder", model.MenuDeleteReminder},
	{"ℹ️ Help", model.MenuHelp},
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

func Start() Message {
	return Message{
		Text: "🎓 *Bot Tugas Kuliah*\n\n" +
			"Login terlebih dahulu:\n" +
			"`login NIM`\n\n" +
			"Contoh:\n`login 221011234`",
	}
}

func LoginSucceeded(nim string) Message {
	return Message{
		Text: "✅ Login berhasil\nNIM: " + escape(nim),
		Menu: true,
	}
}

func LoginFailed() Message {
	return Message{Text: "❌ Format salah.\nGunakan: `login NIM`"}
}

func NeedLogin() Message {
	return Message{Text: "🔒 Login terlebih dahulu:\n`login NIM`"}
}

func Help() Message {
	return Message{
		Text: "ℹ️ *Bantuan*\n\n" +
			"📊 Hitung rata-rata\n" +
			"🔤 Nilai huruf\n" +
			"🏆 Max & Min\n" +
			"⏰ Tambah reminder\n" +
			"📋 List reminder\n" +
			"🗑️ Hapus reminder",
		Menu: true,
	}
}

func Fired(message string) Message {
	return Message{Text: "⏰ *Reminder!*\n\n" + escape(message)}
}

func Outcome(o session.Outcome) Message {
	switch o.Kind {
	case session.OutcomePrompt:
		return prompt(o)
	case session.OutcomeAverage:
		return Message{Text: fmt.Sprintf("📊 Rata-rata: *%.2f*", o.Average), Menu: true}
	case session.OutcomeLetter:
		return Message{Text: fmt.Sprintf("🔤 Nilai %d → *%s*", o.Score, o.Letter), Menu: true}
	case session.OutcomeMinMax:
		return Message{Text: fmt.Sprintf("🏆 Max: *%d*\n📉 Min: *%d*", o.Max, o.Min), Menu: true}
	case session.OutcomeReminderAdded:
		at, _, _ := strings.Cut(o.Reminder.Label, " - ")
		return Message{Text: "✅ Reminder diset pukul *" + at + "*", Menu: true}
	case session.OutcomeReminderList:
		if len(o.Reminders) == 0 {
			return Message{Text: "📋 Belum ada reminder.", Menu: true}
		}
		return Message{Text: "📋 *Daftar Reminder:*\n\n" + list(o.Reminders), Menu: true}
	case session.OutcomeReminderDeleted:
		return Message{Text: "🗑️ Reminder dihapus:\n" + escape(o.Reminder.Label), Menu: true}
	default:
		return Error(o.Err)
	}
}

func prompt(o session.Outcome) Message {
	switch o.Mode {
	case model.ModeAverage:
		return Message{Text: "📊 Masukkan nilai (pisahkan spasi)\n`80 90 75`"}
	case model.ModeLetter:
		return Message{Text: "🔤 Masukkan satu nilai\n`85`"}
	case model.ModeMinMax:
		return Message{Text: "🏆 Masukkan daftar nilai\n`70 80 90`"}
	case model.ModeAddReminder:
		return Message{Text: "⏰ Format reminder:\n`HH:MM pesan`\n\nContoh:\n`18:30 Kumpul tugas AI`"}
	case model.ModeDeleteReminder:
		if len(o.Reminders) == 0 {
			return Message{Text: "📭 Tidak ada reminder untuk dihapus."}
		}
		return Message{
			Text: "🗑️ Masukkan *nomor reminder* yang ingin dihapus\n\n" +
				list(o.Reminders) +
				"\nContoh: `1`",
		}
	default:
		return Error(o.Err)
	}
}

func list(reminders []reminder.Reminder) string {
	var builder strings.Builder

	for i, r := range reminders {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, escape(r.Label)))
	}

	return builder.String()
}

// Error maps the error taxonomy to a reply. Every failed input leaves the
// session in no mode, so the menu is always attached.
func Error(err error) Message {
	var text string

	switch {
	case errors.Is(err, model.ErrNoPendingMode):
		text = "❗ Pilih menu terlebih dahulu."
	case errors.Is(err, model.ErrIndexOutOfRange):
		text = "❌ Nomor tidak ditemukan"
	case errors.Is(err, model.ErrMalformedPosition):
		text = "❌ Masukkan nomor yang valid"
	case errors.Is(err, model.ErrMalformedReminder), errors.Is(err, model.ErrInvalidTimeFormat):
		text = "❌ Format salah\n`HH:MM pesan`"
	case errors.Is(err, model.ErrMalformedNumbers):
		text = "❌ Masukkan angka yang dipisahkan spasi\n`80 90 75`"
	case errors.Is(err, model.ErrMalformedGrade):
		text = "❌ Masukkan satu nilai angka\n`85`"
	case errors.Is(err, model.ErrInvalidDelay):
		text = "❌ Waktu reminder tidak valid"
	default:
		text = "⚠️ Terjadi kesalahan, coba lagi."
	}

	return Message{Text: text, Menu: true}
}
