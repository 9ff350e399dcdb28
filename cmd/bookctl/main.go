// bookctl drives the BarberBook API from the terminal: browse barbers, walk
// the booking flow, review appointments, and chat. It is the reference
// consumer of the bookingkit packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/barberbook/bookingkit/internal/api"
	"github.com/barberbook/bookingkit/internal/bookingflow"
	"github.com/barberbook/bookingkit/internal/chat"
	"github.com/barberbook/bookingkit/internal/config"
	"github.com/barberbook/bookingkit/internal/directory"
	"github.com/barberbook/bookingkit/internal/observability/metrics"
	"github.com/barberbook/bookingkit/internal/session"
	"github.com/barberbook/bookingkit/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := logging.NewText(os.Stderr, cfg.LogLevel)

	store := session.NewStore()
	if token := os.Getenv("BARBERBOOK_TOKEN"); token != "" {
		store.Set(api.User{}, token)
	}
	var m *metrics.BookingMetrics
	if cfg.MetricsEnabled {
		m = metrics.NewBookingMetrics(nil)
	}
	client := api.NewClient(cfg.APIBaseURL, store, logger, m, api.WithTimeout(cfg.HTTPTimeout))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "register":
		err = runRegister(ctx, client, os.Args[2:])
	case "login":
		err = runLogin(ctx, client, os.Args[2:])
	case "barbers":
		err = runBarbers(ctx, client, cfg, logger)
	case "barber":
		err = runBarber(ctx, client, os.Args[2:])
	case "book":
		err = runBook(ctx, client, store, cfg, logger, os.Args[2:])
	case "appointments":
		err = runAppointments(ctx, client)
	case "chat":
		err = runChat(ctx, client, store, cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: bookctl <command> [flags]

commands:
  register      create an account (-name, -email, -password, -phone)
  login         sign in (-email, -password)
  barbers       list all barbers
  barber        show one barber (-id)
  book          book an appointment (-barber, -service, -day, -slot, -notes)
  appointments  list your appointments (requires BARBERBOOK_TOKEN)
  chat          message a barber (-barber, -message, -follow; requires BARBERBOOK_TOKEN)`)
}

func runRegister(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	phone := fs.String("phone", "", "phone number (optional)")
	_ = fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("name, email and password are required")
	}
	res, err := client.Register(ctx, api.RegisterRequest{Name: *name, Email: *email, Password: *password, Phone: *phone})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s (%s)\n", res.User.Name, res.User.Email)
	fmt.Printf("export BARBERBOOK_TOKEN=%s\n", res.Token)
	return nil
}

func runLogin(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	res, err := client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s, %d loyalty points (%s)\n", res.User.Name, res.User.LoyaltyPoints, res.User.LoyaltyLevel)
	fmt.Printf("export BARBERBOOK_TOKEN=%s\n", res.Token)
	return nil
}

func runBarbers(ctx context.Context, client *api.Client, cfg *config.Config, logger *logging.Logger) error {
	dir := directory.New(client, cfg.DirectoryTTL, logger)
	barbers, err := dir.List(ctx)
	if err != nil {
		return err
	}
	for _, b := range barbers {
		shop := b.ShopName
		if shop == "" {
			shop = "independent"
		}
		fmt.Printf("%-12s %-20s %-16s ★%.1f (%d reviews)\n", b.ID, b.Name, shop, b.Rating, b.TotalReviews)
	}
	return nil
}

func runBarber(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("barber", flag.ExitOnError)
	id := fs.String("id", "", "barber id")
	_ = fs.Parse(args)
	if *id == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}

	barber, err := client.GetBarber(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("%s", barber.Name)
	if barber.ShopName != "" {
		fmt.Printf(" - %s", barber.ShopName)
	}
	fmt.Printf("\n★%.1f (%d reviews)\n\nservices:\n", barber.Rating, barber.TotalReviews)
	if len(barber.Services) == 0 {
		fmt.Println("  (no services listed)")
	}
	for i, svc := range barber.Services {
		fmt.Printf("  [%d] %-20s $%-6.2f %d min\n", i, svc.Name, svc.Price, svc.Duration)
	}
	return nil
}

func runBook(ctx context.Context, client *api.Client, store *session.Store, cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	barberID := fs.String("barber", "", "barber id")
	service := fs.Int("service", -1, "service index (see 'bookctl barber')")
	day := fs.Int("day", -1, "day offset within the booking window (0 = today)")
	slot := fs.Int("slot", -1, "slot index; omit to list slots for the day")
	notes := fs.String("notes", "", "notes for the barber (optional)")
	_ = fs.Parse(args)

	if *barberID == "" {
		return fmt.Errorf("-barber is required")
	}

	flow := bookingflow.New(*barberID, bookingflow.Config{
		API:        client,
		Session:    store,
		Logger:     logger,
		WindowDays: cfg.BookingWindow,
	})
	flow.Load(ctx)

	snap := flow.Snapshot()
	if snap.Phase == bookingflow.PhaseNotFound {
		return fmt.Errorf("barber %q not found", *barberID)
	}
	if *service < 0 || *day < 0 {
		return fmt.Errorf("-service and -day are required")
	}
	if err := flow.SelectService(*service); err != nil {
		return err
	}
	if err := flow.SelectDate(ctx, *day); err != nil {
		return err
	}
	if err := waitForSlots(ctx, flow); err != nil {
		return err
	}

	snap = flow.Snapshot()
	date := snap.Dates[snap.SelectedDate].Format("Mon Jan 2")
	if len(snap.Slots) == 0 {
		fmt.Printf("no slots available on %s\n", date)
		return nil
	}
	if *slot < 0 {
		fmt.Printf("slots on %s:\n", date)
		for i, s := range snap.Slots {
			fmt.Printf("  [%d] %s\n", i, s.Display)
		}
		return nil
	}

	if err := flow.SelectSlot(*slot); err != nil {
		return err
	}
	flow.SetNotes(*notes)

	appt, err := flow.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("booked %s on %s at %s\n", appt.Service.Name, date, appt.AppointmentDate.Format("3:04 PM"))
	return nil
}

func waitForSlots(ctx context.Context, flow *bookingflow.Flow) error {
	for {
		if flow.Snapshot().SlotsLoaded {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func runAppointments(ctx context.Context, client *api.Client) error {
	appts, err := client.ListAppointments(ctx)
	if err != nil {
		return err
	}
	if len(appts) == 0 {
		fmt.Println("no appointments")
		return nil
	}
	for _, a := range appts {
		fmt.Printf("%-22s %-20s $%-6.2f %-10s %s\n",
			a.AppointmentDate.Format("Mon Jan 2 3:04 PM"),
			a.Barber.Name, a.Service.Price, a.Status, a.Service.Name)
	}
	return nil
}

func runChat(ctx context.Context, client *api.Client, store *session.Store, cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	barberID := fs.String("barber", "", "barber id")
	message := fs.String("message", "", "message to send")
	follow := fs.Bool("follow", false, "keep polling for new messages until interrupted")
	_ = fs.Parse(args)

	if *barberID == "" {
		return fmt.Errorf("-barber is required")
	}
	svc := chat.New(client, store, logger)
	thread, _, err := svc.OpenWithBarber(ctx, *barberID)
	if err != nil {
		return err
	}

	if *message != "" {
		if _, err := svc.Send(ctx, thread.ID, *message); err != nil {
			return err
		}
	}

	msgs, err := svc.Messages(ctx, thread.ID)
	if err != nil {
		return err
	}
	printed := len(msgs)
	for _, m := range msgs {
		printMessage(m)
	}

	if !*follow {
		return nil
	}
	followCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	svc.Poll(followCtx, thread.ID, cfg.ChatPoll, func(msgs []api.Message) {
		for _, m := range msgs[min(printed, len(msgs)):] {
			printMessage(m)
		}
		printed = len(msgs)
	})
	return nil
}

func printMessage(m api.Message) {
	fmt.Printf("[%s] %-6s %s\n", m.CreatedAt.Format("Jan 2 15:04"), m.SenderType, m.Content)
}
