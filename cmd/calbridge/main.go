package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pershin-daniil/CalBridge/internal/caldav"
	"github.com/pershin-daniil/CalBridge/internal/gcal"
	"github.com/pershin-daniil/CalBridge/internal/rest"
	"github.com/pershin-daniil/CalBridge/internal/telegram"
	"github.com/pershin-daniil/CalBridge/pkg/config"
	"github.com/pershin-daniil/CalBridge/pkg/email"
	"github.com/pershin-daniil/CalBridge/pkg/logger"
	"github.com/pershin-daniil/CalBridge/pkg/service"
	"github.com/pershin-daniil/CalBridge/pkg/store"
	"github.com/pershin-daniil/CalBridge/pkg/worker"
	tele "gopkg.in/telebot.v3"
)

const version = "0.1.0"

func main() {
	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.Panic(err)
	}
	timezone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Panicf("unknown timezone %q: %v", cfg.Timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	meetingStore := store.New(log)
	mailer := email.New(log, email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		Secure:   cfg.SMTPSecure,
	})

	// Calendar sync is optional: a missing or broken backend degrades meeting
	// creation instead of stopping the process.
	var calendarSync service.Calendar
	switch cfg.CalendarBackend {
	case config.BackendCalDAV:
		client, err := caldav.New(log, caldav.Config{
			CalendarURL: cfg.CalDAVCalendarURL,
			Username:    cfg.CalDAVUsername,
			Password:    cfg.CalDAVPassword,
		})
		if err != nil {
			log.Warnf("calendar sync disabled: %v", err)
			break
		}
		if err := client.Initialize(ctx); err != nil {
			log.Warnf("calendar sync disabled: %v", err)
			break
		}
		calendarSync = client
	case config.BackendGoogle:
		client, err := gcal.New(ctx, log, gcal.Config{
			CredentialsFile: cfg.GoogleCredentialsFile,
			TokenFile:       cfg.GoogleTokenFile,
			CalendarID:      cfg.GoogleCalendarID,
		})
		if err != nil {
			log.Warnf("calendar sync disabled: %v", err)
			break
		}
		calendarSync = client
	}

	var notifier service.Notifier
	var bot *tele.Bot
	if cfg.TelegramToken == "" {
		log.Info("TG_TOKEN not set, chat boundary disabled")
	} else {
		bot, err = telegram.NewBot(cfg.TelegramToken)
		if err != nil {
			log.Panic(err)
		}
		notifier = telegram.NewNotifier(log, bot, cfg.TelegramChatID)
	}

	app := service.New(log, meetingStore, mailer, calendarSync, notifier, service.Config{
		InternalDomain:        cfg.InternalDomain,
		DefaultOrganizerEmail: cfg.SMTPFrom,
		Timezone:              timezone,
		AdapterTimeout:        cfg.AdapterTimeout,
	})
	server := rest.New(log, app, cfg.Address, version)
	var tg *telegram.Telegram
	if bot != nil {
		tg = telegram.New(log, bot, app)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
		<-sigCh
		log.Info("Received signal, shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	if tg != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tg.Run(ctx)
		}()
		reminder := worker.New(log, meetingStore, notifier, cfg.ReminderInterval, cfg.ReminderWindow)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reminder.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			log.Panic(err)
		}
	}()
	wg.Wait()
	log.Info("Server stopped")
}
