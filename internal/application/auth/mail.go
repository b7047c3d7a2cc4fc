package auth

import (
	"bytes"
	"fmt"
	"html/template"
)

var (
	verifyEmailTmpl = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <p>Hi {{.Email}},</p>
  <p>Thanks for signing up. Confirm your email address to finish creating your account:</p>
  <p><a href="{{.Link}}">Verify email</a></p>
  <p>This link expires in 5 minutes. If you did not request an account you can ignore this email.</p>
</body>
</html>`))

	otpEmailTmpl = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <p>Hi {{.Email}},</p>
  <p>Your one-time login code is:</p>
  <p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
  <p>It is valid for 5 minutes. Never share it with anyone.</p>
</body>
</html>`))

	resetEmailTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <p>We received a request to reset the password for your account.</p>
  <p>Click <a href="{{.Link}}">here</a> to reset your password. Link expires in 15 minutes.</p>
  <p>If you did not request a password reset, you can safely ignore this email.</p>
</body>
</html>`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func verifyEmailMessage(email, link string) (subject, body string, err error) {
	body, err = render(verifyEmailTmpl, struct{ Email, Link string }{email, link})
	return "verify your email for account creation", body, err
}

func otpEmailBody(email, code string) (string, error) {
	return render(otpEmailTmpl, struct{ Email, Code string }{email, code})
}

func resetEmailBody(link string) (string, error) {
	return render(resetEmailTmpl, struct{ Link string }{link})
}
