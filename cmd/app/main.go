/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"vailethchat/internal"
	"vailethchat/internal/data"
	"vailethchat/internal/identity"
	"vailethchat/internal/input"
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"
	"vailethchat/internal/view"
)

func main() {
	folder := flag.String("config", ".", "folder holding the .cfg file, the optional .env and the database")
	flag.Parse()

	if err := run(*folder); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(folder string) error {
	config, err := internal.LoadConfig(folder)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := nlog.New(os.Stdout, config.LogLevel, config.LogFormat, config.EnableLogging)
	if err != nil {
		return err
	}
	mainLog := logger.RegisterSubsystem("main")

	storageMan, err := data.Open(config.DBPath())
	if err != nil {
		return err
	}
	defer storageMan.Close()
	mainLog.Logf("Database {%s} ready", config.DBPath())

	templateDir := config.TemplateDirectory
	if !filepath.IsAbs(templateDir) {
		templateDir = filepath.Join(config.FolderPath, templateDir)
	}
	templates, err := internal.RetrieveWebTemplates(templateDir)
	if err != nil {
		return err
	}
	renderer, err := view.NewPageRenderer(templates)
	if err != nil {
		return err
	}

	tx := storageMan.GetTransactor()
	userRepo := storageMan.GetUserRepository()
	contactRepo := storageMan.GetContactRepository()
	chatRepo := storageMan.GetChatRepository()
	messageRepo := storageMan.GetMessageRepository()
	statusRepo := storageMan.GetStatusRepository()

	services := input.Services{
		Membership: service.NewMembershipService(tx, userRepo, chatRepo, logger.RegisterSubsystem("membership")),
		Messages:   service.NewMessageService(tx, userRepo, chatRepo, messageRepo, logger.RegisterSubsystem("messaging")),
		Directory:  service.NewDirectoryService(userRepo, contactRepo, chatRepo, messageRepo, logger.RegisterSubsystem("directory")),
		Accounts:   service.NewAccountService(userRepo, config.PresenceWindow, logger.RegisterSubsystem("account")),
		Statuses:   service.NewStatusService(statusRepo, contactRepo, config.StatusTTL, logger.RegisterSubsystem("status")),
	}

	inputMan := input.NewInputManager()
	inputMan.SetLogger(logger.RegisterSubsystem("input"))
	inputMan.SetAccessLogger(logger)
	inputMan.SetStorage(storageMan)
	inputMan.SetServices(services)
	inputMan.SetVerifier(identity.NewJWTVerifier(config.Identity.AssertionSecret, config.Identity.Issuer, config.Identity.Audience))
	inputMan.SetRenderer(renderer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = inputMan.Run(ctx, &input.IptConfig{
		ServerPort:    config.HTTPServerPort,
		ReadTimeout:   config.ReadTimeout,
		WriteTimeout:  config.WriteTimeout,
		SecretKey:     config.SecretKey,
		SecureCookies: config.SecureCookies,
		LoginURL:      config.Identity.LoginURL,
		RateLimit:     config.RateLimit,
		RateBurst:     config.RateBurst,
	})
	mainLog.Logf("Shutting off...")
	return err
}
