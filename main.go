package main

import (
	"context"
	"log"

	"github.com/otpwatch/mail-otp-infra/internal/auth"
	"github.com/otpwatch/mail-otp-infra/internal/config"
	"github.com/otpwatch/mail-otp-infra/internal/mail"
	"github.com/otpwatch/mail-otp-infra/internal/monitor"
	natsjs "github.com/otpwatch/mail-otp-infra/internal/nats"
	"github.com/otpwatch/mail-otp-infra/internal/providers/outlook"
	"github.com/otpwatch/mail-otp-infra/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var publisher *natsjs.Publisher
	if cfg.NATSURL != "" {
		publisher, err = natsjs.NewPublisher(cfg.NATSURL)
		if err != nil {
			log.Fatal(err)
		}
		defer publisher.Close()

		if err := publisher.EnsureStream(context.Background()); err != nil {
			log.Fatal(err)
		}
		log.Printf("events enabled via %s", cfg.NATSURL)
	}

	factory := func(cred *auth.Credential) (mail.FolderReader, error) {
		return outlook.New(cred)
	}

	manager := monitor.NewManager(factory, publisher, cfg.MonitorMaxAttempts, cfg.MonitorBaseDelay(), cfg.ScanFolderLimit)
	srv := server.New(auth.NewExchanger(), manager, factory, cfg.ListLimit)

	log.Printf("listening on %s", cfg.ListenAddr)
	log.Fatal(srv.Router().Run(cfg.ListenAddr))
}
