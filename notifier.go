package auth

import (
	"context"
	"fmt"
	"strings"
)

// loggerNotifier is the default Notifier: it writes outbound mail to the
// logger instead of delivering it. Deployments inject a real mailer.
type loggerNotifier struct {
	logger Logger
}

// NewLoggerNotifier returns a Notifier that logs messages instead of
// sending them.
func NewLoggerNotifier(logger Logger) Notifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &loggerNotifier{logger: logger}
}

func (n *loggerNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("mail to=%s subject=%q body=%q", msg.To, msg.Subject, msg.Body)
	return nil
}

// dispatchMail sends a notification without blocking the calling use case.
// Delivery failures are logged, never propagated: verification and recovery
// emails are not critical-path.
func dispatchMail(notifier Notifier, logger Logger, msg Message) {
	if notifier == nil {
		return
	}

	go func() {
		if err := notifier.Send(context.Background(), msg); err != nil {
			logger.Error("failed to send mail to %s: %v", msg.To, err)
		}
	}()
}

func templateURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func verifyEmailMessage(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email to our platform!",
		Body:    fmt.Sprintf("Hello, %s! Confirm your email address: %s", name, link),
	}
}

func welcomeMessage(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to our platform!",
		Body:    fmt.Sprintf("Hello, %s! Thank you for registering. Verify your email: %s", name, link),
	}
}

func passwordRecoveryMessage(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Recovery password",
		Body:    fmt.Sprintf("Hello, %s! Reset your password here: %s", name, link),
	}
}

func loginCodeMessage(to, name, code string) Message {
	return Message{
		To:      to,
		Subject: "Your login code",
		Body:    fmt.Sprintf("Hello, %s! Your one-time login code is %s. It expires shortly.", name, code),
	}
}
