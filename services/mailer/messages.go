package mailer

import (
	"fmt"
	"html"
	"strings"

	"yuksekolah_go/config"
	"yuksekolah_go/models"
)

// RegistrationURL resolves the public form URL for a stored link value.
// Old rows stored the full frontend URL already; new rows store only the token.
func RegistrationURL(stored string) string {
	if strings.Contains(stored, "://") {
		return stored
	}
	base := "http://localhost:3000"
	if config.AppConfig != nil && config.AppConfig.FrontendURL != "" {
		base = strings.TrimRight(config.AppConfig.FrontendURL, "/")
	}
	return base + "/register/" + stored
}

func loginURL() string {
	base := "http://localhost:3000"
	if config.AppConfig != nil && config.AppConfig.FrontendURL != "" {
		base = strings.TrimRight(config.AppConfig.FrontendURL, "/")
	}
	return base + "/login"
}

// SchoolRegistered is sent to the school admin right after signup, while the
// account awaits verification.
func SchoolRegistered(school *models.School, admin *models.User) Message {
	text := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Terima kasih telah mendaftarkan sekolah Anda di Yuksekolah.\n\n"+
			"Pendaftaran Anda sedang kami proses. Tim kami akan melakukan verifikasi "+
			"dalam waktu 1x24 jam. Anda akan menerima email berikutnya setelah sekolah "+
			"Anda terverifikasi.\n\n"+
			"Data pendaftaran:\n"+
			"  Nama Sekolah : %s\n"+
			"  Email        : %s\n\n"+
			"Salam,\nTim Yuksekolah",
		school.Name, school.Name, school.Email,
	)
	return Message{
		ToName:      admin.Name,
		ToEmail:     admin.Email,
		Subject:     "Pendaftaran Sekolah Diterima - Yuksekolah",
		TextContent: text,
		HTMLContent: textToHTML(text),
	}
}

// SchoolVerified is sent once the super admin activates the school. It carries
// the public registration form URL and the admin login URL.
func SchoolVerified(school *models.School, admin *models.User) Message {
	text := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Selamat! Sekolah Anda telah terverifikasi dan akun Anda sudah aktif.\n\n"+
			"Bagikan tautan berikut kepada calon siswa untuk mengisi formulir "+
			"pendaftaran:\n\n"+
			"  %s\n\n"+
			"Masuk ke dashboard admin sekolah Anda di:\n\n"+
			"  %s\n\n"+
			"Salam,\nTim Yuksekolah",
		school.Name, RegistrationURL(school.RegistrationLink), loginURL(),
	)
	return Message{
		ToName:      admin.Name,
		ToEmail:     admin.Email,
		Subject:     "Sekolah Anda Telah Terverifikasi - Yuksekolah",
		TextContent: text,
		HTMLContent: textToHTML(text),
	}
}

// SchoolRejected is sent when verification is declined, with the reason.
func SchoolRejected(school *models.School, admin *models.User, reason string) Message {
	text := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Mohon maaf, pendaftaran sekolah Anda belum dapat kami setujui.\n\n"+
			"Alasan: %s\n\n"+
			"Silakan hubungi tim kami apabila Anda membutuhkan informasi lebih "+
			"lanjut atau ingin mengajukan pendaftaran ulang.\n\n"+
			"Salam,\nTim Yuksekolah",
		school.Name, reason,
	)
	return Message{
		ToName:      admin.Name,
		ToEmail:     admin.Email,
		Subject:     "Pendaftaran Sekolah Ditolak - Yuksekolah",
		TextContent: text,
		HTMLContent: textToHTML(text),
	}
}

// StudentRegistered is sent after a public form submission. For auto-created
// accounts it includes the generated plaintext password; pass an empty
// password for returning students.
func StudentRegistered(student *models.User, school *models.School, plainPassword string) Message {
	var credentials string
	if plainPassword != "" {
		credentials = fmt.Sprintf(
			"Akun Anda telah dibuat. Gunakan kredensial berikut untuk masuk:\n\n"+
				"  Email    : %s\n"+
				"  Password : %s\n\n"+
				"PENTING: segera ganti password Anda setelah masuk pertama kali.\n\n",
			student.Email, plainPassword,
		)
	} else {
		credentials = "Masuk dengan akun Anda untuk memantau status pendaftaran.\n\n"
	}
	text := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Pendaftaran Anda di %s telah kami terima dan sedang menunggu "+
			"verifikasi dari pihak sekolah.\n\n"+
			"%s"+
			"Pantau status pendaftaran Anda di:\n\n"+
			"  %s\n\n"+
			"Salam,\nTim Yuksekolah",
		student.Name, school.Name, credentials, loginURL(),
	)
	return Message{
		ToName:      student.Name,
		ToEmail:     student.Email,
		Subject:     fmt.Sprintf("Pendaftaran di %s Diterima - Yuksekolah", school.Name),
		TextContent: text,
		HTMLContent: textToHTML(text),
	}
}

// PasswordReset is sent when a school admin or super admin resets a password.
func PasswordReset(user *models.User, plainPassword string) Message {
	text := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Password akun Anda telah direset. Gunakan password baru berikut "+
			"untuk masuk:\n\n"+
			"  Password : %s\n\n"+
			"PENTING: segera ganti password Anda setelah masuk.\n\n"+
			"Salam,\nTim Yuksekolah",
		user.Name, plainPassword,
	)
	return Message{
		ToName:      user.Name,
		ToEmail:     user.Email,
		Subject:     "Password Anda Telah Direset - Yuksekolah",
		TextContent: text,
		HTMLContent: textToHTML(text),
	}
}

func textToHTML(text string) string {
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n\n", "</p><p>")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}
