package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/blogmate/internal/blogservice"
	"github.com/sushihentaime/blogmate/internal/common"
	"github.com/sushihentaime/blogmate/internal/friendservice"
	"github.com/sushihentaime/blogmate/internal/mailservice"
	"github.com/sushihentaime/blogmate/internal/userservice"
)

type application struct {
	config        *Config
	logger        *slog.Logger
	userService   *userservice.UserService
	blogService   *blogservice.BlogService
	friendService *friendservice.FriendService
	mailService   *mailservice.MailService
	broker        *common.MessageBroker
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	tokens := userservice.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	app := &application{
		config:        cfg,
		logger:        logger,
		userService:   userservice.NewUserService(db, broker, cache, tokens, logger),
		blogService:   blogservice.NewBlogService(db, cache),
		friendService: friendservice.NewFriendService(db),
		mailService:   mailservice.NewMailService(broker, cfg.Mail.Host, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.Port, logger),
		broker:        broker,
	}
	defer app.mailService.Close()

	app.mailService.SendVerificationEmail()
	app.mailService.SendPasswordResetEmail()

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
