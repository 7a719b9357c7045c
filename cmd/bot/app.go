package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/skip2/go-qrcode"

	"puppetry/pkg/bot"
	"puppetry/pkg/mock"
	"puppetry/pkg/puppet"
)

const (
	envConfigFile           = "PUPPETRY_CONFIG_FILE"
	defaultConfigFilePath   = "config/bot.json"
	alternateConfigFilePath = "bin/config/bot.json"

	defaultBotName = "ding-dong-bot"
	defaultSelfID  = "bot-self"
)

type appConfig struct {
	logLevel slog.Level

	botName              string
	autoAcceptFriendship bool

	self     seedContact
	contacts []seedContact
}

type seedContact struct {
	id     string
	name   string
	alias  string
	handle string
	phone  []string
}

type fileConfig struct {
	LogLevel             string        `json:"log_level"`
	BotName              string        `json:"bot_name"`
	AutoAcceptFriendship *bool         `json:"auto_accept_friendship"`
	Self                 *fileContact  `json:"self"`
	Contacts             []fileContact `json:"contacts"`
}

type fileContact struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Alias  string   `json:"alias"`
	Handle string   `json:"handle"`
	Phone  []string `json:"phone"`
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.logLevel}))

	backend := mock.NewBackend()
	seedBackend(backend, cfg)

	session, err := bot.New(backend, bot.WithName(cfg.botName), bot.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("new bot: %w", err)
	}

	registerHandlers(session, logger, cfg)
	scriptEvents(backend, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run bot: %w", err)
	}

	return nil
}

func loadConfig() (appConfig, error) {
	cfg := defaultAppConfig()

	configFile, err := resolveConfigFilePath()
	if err != nil {
		return appConfig{}, err
	}
	if configFile == "" {
		return cfg, nil
	}

	if err := applyConfigFile(&cfg, configFile); err != nil {
		return appConfig{}, err
	}
	if err := validateAppConfig(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("validate config file %s: %w", configFile, err)
	}

	return cfg, nil
}

// resolveConfigFilePath returns an empty path when no config file exists;
// the built-in demo seed is used in that case.
func resolveConfigFilePath() (string, error) {
	if configFile := strings.TrimSpace(os.Getenv(envConfigFile)); configFile != "" {
		return configFile, nil
	}

	candidates := []string{defaultConfigFilePath, alternateConfigFilePath}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config file %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config file %s: %w", candidate, err)
		}
	}

	return "", nil
}

func defaultAppConfig() appConfig {
	return appConfig{
		logLevel:             slog.LevelInfo,
		botName:              defaultBotName,
		autoAcceptFriendship: true,
		self:                 seedContact{id: defaultSelfID, name: "Ding Dong Bot"},
		contacts: []seedContact{
			{id: "contact-alice", name: "Alice", alias: "ally", phone: []string{"+100001"}},
			{id: "contact-bob", name: "Bob", handle: "bob_online"},
		},
	}
}

func applyConfigFile(cfg *appConfig, path string) error {
	if cfg == nil {
		return fmt.Errorf("apply config file: nil config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if rawLevel := strings.TrimSpace(parsed.LogLevel); rawLevel != "" {
		level, err := parseLogLevel(rawLevel)
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.logLevel = level
	}
	if botName := strings.TrimSpace(parsed.BotName); botName != "" {
		cfg.botName = botName
	}
	if parsed.AutoAcceptFriendship != nil {
		cfg.autoAcceptFriendship = *parsed.AutoAcceptFriendship
	}
	if parsed.Self != nil {
		cfg.self = parseSeedContact(*parsed.Self)
	}
	if parsed.Contacts != nil {
		cfg.contacts = make([]seedContact, 0, len(parsed.Contacts))
		for _, entry := range parsed.Contacts {
			cfg.contacts = append(cfg.contacts, parseSeedContact(entry))
		}
	}

	return nil
}

func parseSeedContact(raw fileContact) seedContact {
	return seedContact{
		id:     strings.TrimSpace(raw.ID),
		name:   strings.TrimSpace(raw.Name),
		alias:  strings.TrimSpace(raw.Alias),
		handle: strings.TrimSpace(raw.Handle),
		phone:  raw.Phone,
	}
}

func validateAppConfig(cfg *appConfig) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if cfg.self.id == "" {
		return fmt.Errorf("self.id is required")
	}

	seen := map[string]struct{}{cfg.self.id: {}}
	for index, contact := range cfg.contacts {
		if contact.id == "" {
			return fmt.Errorf("contacts[%d].id is required", index)
		}
		if _, dup := seen[contact.id]; dup {
			return fmt.Errorf("contacts[%d]: duplicate id %s", index, contact.id)
		}
		seen[contact.id] = struct{}{}
	}

	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}

func seedBackend(backend *mock.Backend, cfg appConfig) {
	backend.AddContact(contactPayload(cfg.self))
	for _, contact := range cfg.contacts {
		backend.AddContact(contactPayload(contact))
	}
}

func contactPayload(contact seedContact) puppet.ContactPayload {
	return puppet.ContactPayload{
		ID:     contact.id,
		Name:   contact.name,
		Alias:  contact.alias,
		Handle: contact.handle,
		Phone:  contact.phone,
		Friend: true,
		Type:   puppet.ContactTypeIndividual,
	}
}

func registerHandlers(session *bot.Bot, logger *slog.Logger, cfg appConfig) {
	session.OnScan(func(_ context.Context, payload bot.ScanPayload, _ bot.Context) error {
		if payload.QRCode == "" {
			logger.Info("scan update", "status", payload.Status)
			return nil
		}

		code, err := qrcode.New(payload.QRCode, qrcode.Medium)
		if err != nil {
			return fmt.Errorf("render scan qr code: %w", err)
		}
		fmt.Println(code.ToSmallString(false))
		logger.Info("scan qr code ready", "status", payload.Status)

		return nil
	})

	session.OnLogin(func(_ context.Context, payload bot.LoginPayload, _ bot.Context) error {
		logger.Info("logged in", "contact", payload.Contact.Name())

		return nil
	})

	session.OnLogout(func(_ context.Context, payload bot.LogoutPayload, _ bot.Context) error {
		logger.Info("logged out", "contact", payload.Contact.Name(), "reason", payload.Data)

		return nil
	})

	session.OnMessage(func(ctx context.Context, payload bot.MessagePayload, botCtx bot.Context) error {
		message := payload.Message
		if from := message.From(); from != nil && from.ID() == cfg.self.id {
			return nil
		}
		logger.Info("message received", "text", message.Text())

		switch message.Text() {
		case "ding":
			if _, err := message.Reply(ctx, "dong"); err != nil {
				return fmt.Errorf("reply dong: %w", err)
			}
		case "#ding":
			if err := botCtx.Ding(ctx, "ding"); err != nil {
				return fmt.Errorf("probe backend: %w", err)
			}
		}

		return nil
	})

	session.OnDong(func(_ context.Context, payload bot.DongPayload, _ bot.Context) error {
		logger.Info("dong received", "data", payload.Data)

		return nil
	})

	session.OnFriendship(func(ctx context.Context, payload bot.FriendshipPayload, _ bot.Context) error {
		friendship := payload.Friendship
		logger.Info("friendship event", "hello", friendship.Hello())
		if !cfg.autoAcceptFriendship || friendship.Type() != puppet.FriendshipTypeReceive {
			return nil
		}
		if err := friendship.Accept(ctx); err != nil {
			return fmt.Errorf("accept friendship: %w", err)
		}

		return nil
	})

	session.OnRoomJoin(func(_ context.Context, payload bot.RoomJoinPayload, _ bot.Context) error {
		logger.Info("room join", "topic", payload.Room.Topic(), "invitees", len(payload.Invitees))

		return nil
	})
}

// scriptEvents drives the mock backend through a login sequence and one
// inbound message so the demo produces output immediately.
func scriptEvents(backend *mock.Backend, cfg appConfig) {
	backend.EmitScan(puppet.ScanStatusWaiting, "qr://login/"+cfg.self.id)
	backend.EmitScan(puppet.ScanStatusConfirmed, "")
	backend.EmitLogin(cfg.self.id)

	if len(cfg.contacts) > 0 {
		backend.AddMessage(puppet.MessagePayload{
			ID:     "seed-message-1",
			Text:   "ding",
			Type:   puppet.MessageTypeText,
			FromID: cfg.contacts[0].id,
			ToID:   cfg.self.id,
		})
		backend.EmitMessage("seed-message-1")
	}
}
