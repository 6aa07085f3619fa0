package router

import (
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/refilltimer"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"gorm.io/gorm"
)

// Options -> kolaborator eksternal dan setting HTTP
type Options struct {
	// Publisher tujuan event realtime, default ke Hub jika nil
	Publisher realtime.Publisher
	Hub       *realtime.Hub

	TimerStore   refilltimer.Store
	TimerRemote  refilltimer.RemoteSource
	TimerOptions refilltimer.Options

	// ProofStore nil -> upload bukti pembayaran mengembalikan 503
	ProofStore  services.ProofStore
	ProofPrefix string

	Reservation services.ReservationOptions

	CORSOrigins        []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	HSTS               bool
}

// Dependencies -> semua service yang dipakai controller
type Dependencies struct {
	DB      *gorm.DB
	Options Options
	Hub     *realtime.Hub

	Tables         *services.TableService
	Availability   *services.AvailabilityService
	Reservations   *services.ReservationService
	Proofs         *services.PaymentProofService
	Refills        *services.RefillService
	CustomerTimers *services.CustomerTimerService
	Customers      *services.CustomerService
	Dashboard      *services.DashboardService
	Timers         *refilltimer.Coordinator
}

func NewDependencies(db *gorm.DB, opts Options) *Dependencies {
	var publisher services.Publisher
	switch {
	case opts.Publisher != nil:
		publisher = opts.Publisher
	case opts.Hub != nil:
		publisher = opts.Hub
	}

	store := opts.TimerStore
	if store == nil {
		store = refilltimer.NewMemoryStore()
	}

	tables := services.NewTableService(db, publisher)
	refills := services.NewRefillService(db, tables, publisher)

	return &Dependencies{
		DB:             db,
		Options:        opts,
		Hub:            opts.Hub,
		Tables:         tables,
		Availability:   services.NewAvailabilityService(db),
		Reservations:   services.NewReservationService(db, publisher, opts.ProofStore, opts.Reservation),
		Proofs:         services.NewPaymentProofService(db, opts.ProofStore, publisher, opts.ProofPrefix),
		Refills:        refills,
		CustomerTimers: services.NewCustomerTimerService(db, tables),
		Customers:      services.NewCustomerService(db),
		Dashboard:      services.NewDashboardService(db),
		Timers:         refilltimer.NewCoordinator(store, refills, opts.TimerRemote, publisher, opts.TimerOptions),
	}
}
