package tgbot

import (
	"log/slog"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/internal/model/tg/tgCallback"
	"github.com/KotFed0t/librefolio/internal/transport/telegram"
	customMW "github.com/KotFed0t/librefolio/internal/transport/telegram/middleware"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type TGBot struct {
	bot  *tele.Bot
	ctrl *telegram.Controller
}

func New(cfg *config.Config, ctrl *telegram.Controller) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), middleware.AutoRespond(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/home", b.ctrl.Home)
	b.bot.Handle("/about", b.ctrl.About)
	b.bot.Handle("/refresh", b.ctrl.Refresh)
	b.bot.Handle("/export", b.ctrl.Export)

	b.bot.Handle(&tele.Btn{Unique: tgCallback.Home}, b.ctrl.Home)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.About}, b.ctrl.About)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Refresh}, b.ctrl.Refresh)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Export}, b.ctrl.Export)
}
