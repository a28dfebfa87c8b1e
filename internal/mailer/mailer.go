package mailer

import (
	"fmt"     // HTML body building
	"io"      // Attachment copy
	"sort"    // Stable field order in the body
	"strings" // Body assembly

	"gopkg.in/gomail.v2" // SMTP client
)

// SMTPMailer sends transactional mail through a plain SMTP submission
// account.
type SMTPMailer struct {
	dialer *gomail.Dialer // SMTP connection settings
	from   string         // Sender address
}

// NewSMTPMailer builds the mailer.
func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password), // SMTP connection settings
		from:   user,                                         // Sender address
	}
}

// SendReceipt mails the order receipt with the rendered PDF attached. The
// HTML body lists the same fields the PDF carries.
func (m *SMTPMailer) SendReceipt(recipient, subject string, fields map[string]string, pdf []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)      // Sender address
	msg.SetHeader("To", recipient)     // Recipient
	msg.SetHeader("Subject", subject)  // Subject line
	msg.SetBody("text/html", receiptBody(fields))
	// Attach the rendered receipt
	msg.Attach("invoice.pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))
	return m.dialer.DialAndSend(msg)
}

// receiptBody renders a minimal HTML table of the receipt fields.
func receiptBody(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("<h2>Order Confirmation</h2><table>")
	for _, k := range keys {
		fmt.Fprintf(&b, "<tr><td><b>%s</b></td><td>%s</td></tr>", k, fields[k])
	}
	b.WriteString("</table><p>Please find your invoice attached.</p>")
	return b.String()
}
