// Command resetpassword resets a user's password from the terminal, proving
// ownership with either the current password or a code e-mailed to the
// account.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"fintrack/internal/config"
	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/notify"
	"fintrack/internal/otp"
	"fintrack/internal/services"
)

const maxAttempts = 3

// backend is what a reset needs from the rest of the system.
type backend struct {
	users services.UserServicer
	otps  services.OTPServicer
	close func()
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, openBackend); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openBackend connects to the configured database and notifier. Codes are
// kept in the database store so that one code per address holds across the
// API server and this command.
func openBackend() (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	dbConfig, err := database.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var notifier notify.Notifier
	closeNotifier := func() {}
	switch cfg.Notifier {
	case "amqp":
		n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			_ = dbManager.Close()
			return nil, fmt.Errorf("failed to connect notifier: %w", err)
		}
		notifier = n
		closeNotifier = func() { _ = n.Close() }
	default:
		notifier = notify.NewLogNotifier(logger.Named("notify"), !logger.IsProduction())
	}

	users := services.NewUserService(dbManager.DB())
	return &backend{
		users: users,
		otps:  services.NewOTPService(users, otp.NewGormStore(dbManager.DB()), notifier, cfg.OTPTTL),
		close: func() {
			closeNotifier()
			_ = dbManager.Close()
		},
	}, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, open func() (*backend, error)) error {
	fs := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Account e-mail (prompted if omitted)")
	method := fs.String("method", string(services.MethodCurrentPassword), "Verification: current_password or email_otp")

	if err := fs.Parse(args); err != nil {
		return err
	}

	chosen := services.ResetMethod(*method)
	if chosen != services.MethodCurrentPassword && chosen != services.MethodEmailOTP {
		fs.PrintDefaults()
		return fmt.Errorf("unknown method %q", *method)
	}

	b, err := open()
	if err != nil {
		return err
	}
	defer b.close()

	p := newPrompter(stdin, stdout)
	flow := services.NewPasswordReset(b.users, b.otps)

	address := *email
	if address == "" {
		if address, err = p.line("Email: "); err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}
	if err := flow.SubmitEmail(address); err != nil {
		return err
	}

	if err := flow.ChooseMethod(ctx, chosen); err != nil {
		return err
	}
	secretLabel := "Current password: "
	if chosen == services.MethodEmailOTP {
		fmt.Fprintf(stdout, "A code was sent to %s.\n", flow.Email())
		secretLabel = "Code: "
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		secret, err := p.secret(secretLabel)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		newPassword, err := p.secret("New password: ")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		confirm, err := p.secret("Confirm new password: ")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		err = flow.SubmitPasswords(ctx, secret, newPassword, confirm)
		if err == nil {
			fmt.Fprintf(stdout, "Password for %s updated successfully\n", flow.Email())
			return nil
		}
		if !retryable(err) {
			flow.Cancel()
			return err
		}
		fmt.Fprintf(stdout, "%v\n", err)
	}

	flow.Cancel()
	return fmt.Errorf("giving up after %d attempts", maxAttempts)
}

// retryable reports whether the user can fix err by typing again.
func retryable(err error) bool {
	for _, target := range []error{
		apperrors.ErrPasswordMismatch,
		apperrors.ErrInvalidInput,
		apperrors.ErrInvalidCurrentPassword,
		apperrors.ErrOTPInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// prompter reads answers from a terminal without echo, or line by line
// from any other reader.
type prompter struct {
	stdin  io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(stdin io.Reader, out io.Writer) *prompter {
	return &prompter{stdin: stdin, reader: bufio.NewReader(stdin), out: out}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	text, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		return "", err
	}
	return strings.TrimRight(text, "\r\n"), nil
}

func (p *prompter) secret(label string) (string, error) {
	f, ok := p.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out) // newline after hidden input
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
