package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/event-auth-server/auth"
	"github.com/jrsteele09/event-auth-server/internal/config"
	"github.com/jrsteele09/event-auth-server/mail"
	"github.com/jrsteele09/event-auth-server/otp"
	"github.com/jrsteele09/event-auth-server/storage/postgres"
	"github.com/jrsteele09/event-auth-server/storage/sqlite"
	"github.com/jrsteele09/event-auth-server/storage/sqlstore"
	"github.com/jrsteele09/event-auth-server/token"
	refreshrepofake "github.com/jrsteele09/event-auth-server/token/refresh/repofake"
	"github.com/jrsteele09/event-auth-server/token/revokedredis"
	fakeuserrepo "github.com/jrsteele09/event-auth-server/users/repofake"
	"github.com/rs/zerolog/log"
)

// openRepos selects the credential and token stores from STORAGE_DRIVER
func openRepos(ctx context.Context, c config.Config) (auth.Repos, func(), error) {
	var (
		store *sqlstore.Store
		err   error
	)

	switch c.GetStorageDriver() {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory storage, accounts are lost on restart")
		return auth.Repos{
			Users:         fakeuserrepo.NewFakeUserRepo(),
			RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		}, func() {}, nil
	case config.DriverSQLite:
		store, err = sqlite.Open(ctx, c.GetSQLitePath())
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, c.GetDatabaseDSN())
	default:
		return auth.Repos{}, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", c.GetStorageDriver())
	}
	if err != nil {
		return auth.Repos{}, nil, err
	}

	log.Info().Str("driver", c.GetStorageDriver()).Msg("storage ready")
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Err(err).Msg("closing storage failed")
		}
	}
	return auth.Repos{Users: store.Users, RefreshTokens: store.RefreshTokens}, closeStore, nil
}

// openRevocationList selects where revoked access tokens are kept from REVOCATION_DRIVER
func openRevocationList(ctx context.Context, c config.Config) (token.RevokedTokenCache, func(), error) {
	switch c.GetRevocationDriver() {
	case config.DriverMemory:
		cache := token.NewInMemoryRevokedTokenCache(nil)
		go cache.Run(ctx, c.GetTokenSweepInterval())
		return cache, func() {}, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		cache, err := revokedredis.New(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("revocation list on redis")
		closeCache := func() {
			if err := cache.Close(); err != nil {
				log.Err(err).Msg("closing redis failed")
			}
		}
		return cache, closeCache, nil
	}
	return nil, nil, fmt.Errorf("unknown REVOCATION_DRIVER %q", c.GetRevocationDriver())
}

// newOTPSender selects how OTP emails leave the process from MAIL_DRIVER
func newOTPSender(c config.Config) (otp.Sender, error) {
	switch c.GetMailDriver() {
	case config.MailDriverLog:
		log.Warn().Msg("MAIL_DRIVER=log, OTP codes are written to the log instead of emailed")
		return mail.LogSender{}, nil
	case config.MailDriverSMTP:
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     c.GetSmtpHost(),
			Port:     c.GetSmtpPort(),
			Username: c.GetSmtpAccount(),
			Password: c.GetSmtpPassword(),
			From:     c.GetMailFrom(),
		})
	}
	return nil, fmt.Errorf("unknown MAIL_DRIVER %q", c.GetMailDriver())
}
