package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/cinelist/pkg/logger"
)

// DevMailer prints messages instead of sending them.
type DevMailer struct {
	out io.Writer
}

func NewDevMailer(out io.Writer) *DevMailer {
	if out == nil {
		out = os.Stdout
	}
	return &DevMailer{out: out}
}

func (d *DevMailer) Send(ctx context.Context, to, subject, body string) error {
	logger.InfoContext(ctx, "📧 [DEV MAIL]",
		"to", to,
		"subject", subject,
	)

	_, err := fmt.Fprintf(d.out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		to, subject, body)
	return err
}
