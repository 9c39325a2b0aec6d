package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	config "github.com/phillip/event-ledger-go/config"
	"github.com/phillip/event-ledger-go/ledger"
	"github.com/phillip/event-ledger-go/logger"
	"github.com/phillip/event-ledger-go/store"
	utils "github.com/phillip/event-ledger-go/utils"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "event-ledger",
	Short: "Payment and invoice ledger for event planning",
	Long: `event-ledger tracks what clients owe and what is owed to vendors for
each event, issues invoices and keeps payment and invoice records in step.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs once configuration and the database are up.
type app struct {
	cfg   *config.Config
	store *store.MongoStore
	svc   *ledger.Service
}

func (a *app) Close(ctx context.Context) {
	if a.cfg.MongoClient != nil {
		_ = a.cfg.MongoClient.Disconnect(ctx)
	}
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	client, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	cfg.MongoClient = client

	st := store.NewMongoStore(client, cfg.DBName, cfg.Transactions)
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	svc := ledger.NewService(st, ledger.Options{
		CurrencySymbol: cfg.CurrencySymbol,
		Currency:       cfg.Currency,
		Notifiers:      buildNotifiers(cfg, st),
		NotifyTimeout:  cfg.NotifyTimeout,
	})
	return &app{cfg: cfg, store: st, svc: svc}, nil
}

// buildNotifiers wires the downstream collaborators that have configuration.
// Documents come first so the email can link the uploaded PDF.
func buildNotifiers(cfg *config.Config, st *store.MongoStore) []ledger.Notifier {
	log := logger.WithComponent("cmd")
	var notifiers []ledger.Notifier

	if cfg.CloudinaryConfigured() {
		docs, err := utils.NewDocumentStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn().Err(err).Msg("invoice documents disabled")
		} else {
			notifiers = append(notifiers, &utils.DocumentNotifier{Clients: st, Uploader: docs})
		}
	}
	if cfg.MailConfigured() {
		notifiers = append(notifiers, &utils.EmailNotifier{
			Clients: st,
			Sender:  utils.NewMailer(cfg.ZeptoAPIURL, cfg.ZeptoAPIKey, cfg.EmailFrom),
			Symbol:  cfg.CurrencySymbol,
		})
	}
	notifiers = append(notifiers, &store.ActivityNotifier{Writer: st, Symbol: cfg.CurrencySymbol})
	return notifiers
}
