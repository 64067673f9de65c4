package main

import (
	"context"
	"log"
	"os"

	"immersionflow/agency"
	"immersionflow/assessment"
	"immersionflow/auth"
	"immersionflow/convention"
	"immersionflow/db"
	"immersionflow/magiclink"
	"immersionflow/notification"
	"immersionflow/shortlink"
)

// logEmailSender stands in until an SMTP provider is configured.
type logEmailSender struct{}

func (logEmailSender) Send(ctx context.Context, to string, kind notification.Kind, link string) error {
	log.Printf("email %s to %s: %s", kind, to, link)
	return nil
}

// logSMSSender stands in until an SMS provider is configured.
type logSMSSender struct{}

func (logSMSSender) Send(ctx context.Context, phone string, kind notification.Kind, shortURL string) error {
	log.Printf("sms %s to %s: %s", kind, phone, shortURL)
	return nil
}

func main() {
	ctx := context.Background()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	linkCfg, err := magiclink.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("bootstrap magic-link config: %v", err)
	}

	users := auth.NewRepository(pool)
	agencies := agency.NewRepository(pool)
	assessments := assessment.NewRepository(pool)
	conventions := convention.NewRepository(pool)
	queries := convention.NewQueries(pool)
	resolver := convention.NewRoleResolver(users)

	conventionService := convention.NewService(pool, conventions, queries, agencies, assessments, convention.NewOutbox(), resolver)
	accountService := auth.NewService(users, linkCfg.JWTSecret)
	linkIssuer := magiclink.NewIssuer(linkCfg)
	shortLinks := shortlink.NewService(shortlink.NewRepository(pool), linkCfg.BaseURL)
	sender := notification.NewSender(conventions, linkIssuer, shortLinks, notification.NewRepository(pool), logEmailSender{}, logSMSSender{})

	log.Printf("convention services ready: state machine=%v accounts=%v links=%v shortener=%v sender=%v",
		conventionService != nil, accountService != nil, linkIssuer != nil, shortLinks != nil, sender != nil)
}
