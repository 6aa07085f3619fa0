// Command kiosk adalah client meja: validasi kode meja, kirim refill,
// ikuti countdown dan kirim reservasi ke backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/posclient"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/spf13/pflag"
)

const usage = `Usage: kiosk [--server URL] [--token TOKEN] <command> [args]

Commands:
  validate <table_code>
  refill <table_code> Name=qty [Name=qty ...] [--notes text]
  countdown <table_code> [--minutes N] [--follow]
  reserve --name N --phone P --table ID --date YYYY-MM-DD --time HH:MM [--guests N]
`

func main() {
	global := pflag.NewFlagSet("kiosk", pflag.ContinueOnError)
	server := global.String("server", envOr("KIOSK_SERVER", "http://localhost:8080"), "backend base URL")
	token := global.String("token", os.Getenv("KIOSK_TOKEN"), "bearer token (needed for reserve)")
	logLevel := global.String("log-level", "warn", "log level")
	global.SetInterspersed(false)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	if err := global.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	utils.InitLogger(*logLevel, "text")

	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := posclient.New(*server, posclient.WithAPIKey(*token))

	var err error
	switch args[0] {
	case "validate":
		err = runValidate(ctx, client, args[1:])
	case "refill":
		err = runRefill(ctx, client, args[1:])
	case "countdown":
		err = runCountdown(ctx, client, args[1:])
	case "reserve":
		err = runReserve(ctx, client, args[1:])
	default:
		global.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runValidate(ctx context.Context, client *posclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("validate needs exactly one table code")
	}
	res, err := client.ValidateTableCode(ctx, args[0])
	if err != nil {
		return err
	}
	switch {
	case res.Offline:
		fmt.Printf("Offline mode: using table code %q without server validation\n", res.TableCode)
	case !res.Valid:
		return fmt.Errorf("Invalid table code, please check and try again")
	default:
		fmt.Printf("Table %d (%s) is valid\n", res.Table.TableNumber, res.Table.TableCode)
	}
	return nil
}

// parseItems -> "Pork=2" menjadi RefillItem{Name: "Pork", Quantity: 2}
func parseItems(args []string) ([]posclient.RefillItem, error) {
	items := make([]posclient.RefillItem, 0, len(args))
	for _, arg := range args {
		name, qty, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("item %q must look like Name=qty", arg)
		}
		n, err := strconv.Atoi(qty)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("item %q has an invalid quantity", arg)
		}
		items = append(items, posclient.RefillItem{Name: strings.TrimSpace(name), Quantity: n})
	}
	return items, nil
}

func runRefill(ctx context.Context, client *posclient.Client, args []string) error {
	fs := pflag.NewFlagSet("refill", pflag.ContinueOnError)
	notes := fs.String("notes", "", "extra notes for staff")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("refill needs a table code")
	}

	items, err := parseItems(fs.Args()[1:])
	if err != nil {
		return err
	}
	input := posclient.RefillRequestInput{TableCode: fs.Arg(0), Items: items}
	if *notes != "" {
		input.Notes = notes
	}

	created, err := client.CreateRefillRequest(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("Refill request #%d sent: %s\n", created.ID, created.RequestType)
	return nil
}

func runCountdown(ctx context.Context, client *posclient.Client, args []string) error {
	fs := pflag.NewFlagSet("countdown", pflag.ContinueOnError)
	minutes := fs.Int("minutes", 0, "countdown length in minutes (server default when omitted)")
	follow := fs.Bool("follow", false, "keep printing until the countdown completes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("countdown needs exactly one table code")
	}
	code := fs.Arg(0)

	var m *int
	if fs.Changed("minutes") {
		m = minutes
	}
	snap, err := client.StartCountdown(ctx, code, m)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", snap.Display, snap.Status)
	if !*follow {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for snap.Status != "Completed" {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next, err := client.Countdown(ctx, code)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("Countdown refresh failed")
			continue
		}
		snap = next
		fmt.Printf("\r%s  %s", snap.Display, snap.Status)
	}
	fmt.Println("\nTime's up! Thank you for dining with us.")
	return nil
}

func runReserve(ctx context.Context, client *posclient.Client, args []string) error {
	fs := pflag.NewFlagSet("reserve", pflag.ContinueOnError)
	name := fs.String("name", "", "customer name")
	phone := fs.String("phone", "", "phone number")
	email := fs.String("email", "", "email (optional)")
	table := fs.String("table", "", "table id")
	date := fs.String("date", "", "reservation date YYYY-MM-DD")
	timeValue := fs.String("time", "", "reservation time HH:MM")
	guests := fs.Int("guests", 2, "number of guests")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input := posclient.ReservationInput{
		CustomerName:    *name,
		Phone:           *phone,
		TableID:         *table,
		NumberOfGuests:  *guests,
		ReservationDate: *date,
		ReservationTime: *timeValue,
	}
	if *email != "" {
		input.Email = email
	}

	created, err := client.CreateReservation(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("Reservation %s created (id %d)\n", created.ReservationCode, created.ID)
	return nil
}
