package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/data/cache"
	"github.com/KotFed0t/librefolio/data/session"
	"github.com/KotFed0t/librefolio/internal/converter/telebotConverter"
	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/internal/presenter"
	"github.com/KotFed0t/librefolio/internal/service"
	"github.com/KotFed0t/librefolio/utils"
	tele "gopkg.in/telebot.v4"
)

const (
	internalErrMsg     = "something went wrong..."
	syncDoneMsg        = "Holdings updated"
	syncRunningMsg     = "Sync already running, showing current data"
	syncFailedMsg      = "Sync failed, showing last data"
	nothingToExportMsg = "Nothing to export yet"
	exportTooLargeMsg  = "Export is too large to send"

	boardWaitTimeout = 2 * time.Second
)

type Board interface {
	Holdings() []model.Holding
	Cards(now time.Time) []model.EquityCard
	WaitCurrent(ctx context.Context) error
}

type SyncService interface {
	SyncHoldings(ctx context.Context) error
	LastStatus(ctx context.Context) (model.SyncStatus, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, holdings []model.Holding) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	cfg             *config.Config
	board           Board
	syncService     SyncService
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage // nil when uploads are disabled
	session         Session
	now             func() time.Time
}

func NewController(
	cfg *config.Config,
	board Board,
	syncService SyncService,
	reportGenerator ReportGenerator,
	cloudStorage CloudStorage,
	session Session,
) *Controller {
	return &Controller{
		cfg:             cfg,
		board:           board,
		syncService:     syncService,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
		session:         session,
		now:             time.Now,
	}
}

// Start reopens the screen the chat was last on.
func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSession(ctx, c)
	if err == nil && chatSession.Route == model.AboutRoute {
		return ctrl.About(c)
	}

	return ctrl.Home(c)
}

func (ctrl *Controller) Home(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	return ctrl.showHome(ctx, c, "")
}

func (ctrl *Controller) About(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	ctrl.setRoute(ctx, c, model.AboutRoute)

	status, err := ctrl.syncService.LastStatus(ctx)
	found := err == nil
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		slog.Error("got error from syncService.LastStatus", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return ctrl.render(c, internalErrMsg, nil)
	}

	text, markup := telebotConverter.AboutResponse(status, found, ctrl.now())
	return ctrl.render(c, text, markup)
}

// Refresh runs one sync cycle and shows the holdings the board has afterwards.
func (ctrl *Controller) Refresh(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	notice := syncDoneMsg
	err := ctrl.syncService.SyncHoldings(ctx)
	switch {
	case err == nil:
		waitCtx, cancel := context.WithTimeout(ctx, boardWaitTimeout)
		defer cancel()
		if err = ctrl.board.WaitCurrent(waitCtx); err != nil {
			slog.Warn("board was not updated in time", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
	case errors.Is(err, service.ErrSyncInProgress):
		notice = syncRunningMsg
	default:
		slog.Error("got error from syncService.SyncHoldings", slog.String("rqID", rqID), slog.String("err", err.Error()))
		notice = syncFailedMsg
	}

	return ctrl.showHome(ctx, c, notice)
}

// Export sends the current holdings as a spreadsheet.
// Files above the telegram limit go to cloud storage and the chat gets a link.
func (ctrl *Controller) Export(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	holdings := ctrl.board.Holdings()
	if len(holdings) == 0 {
		return c.Send(nothingToExportMsg)
	}

	fileBytes, fileExtension, err := ctrl.reportGenerator.Generate(ctx, presenter.SortByHeldValue(holdings))
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	filename := fmt.Sprintf("holdings_%s%s", ctrl.now().UTC().Format("20060102_150405"), fileExtension)

	if len(fileBytes) <= ctrl.cfg.Telegram.FileLimitInBytes {
		return c.Send(&tele.Document{
			File:     tele.FromReader(bytes.NewReader(fileBytes)),
			FileName: filename,
		})
	}

	slog.Info("export exceeds telegram file limit", slog.String("rqID", rqID), slog.Int("size", len(fileBytes)))

	if ctrl.cloudStorage == nil {
		return c.Send(exportTooLargeMsg)
	}

	link, err := ctrl.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(fmt.Sprintf("Export is ready: %s", link))
}

func (ctrl *Controller) showHome(ctx context.Context, c tele.Context, notice string) error {
	ctrl.setRoute(ctx, c, model.HomeRoute)

	text, markup := telebotConverter.HomeResponse(ctrl.board.Cards(ctrl.now()), notice)
	return ctrl.render(c, text, markup)
}

// render edits the message of a pressed button, or sends a new one for commands.
func (ctrl *Controller) render(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := []interface{}{}
	if markup != nil {
		opts = append(opts, markup)
	}

	if c.Callback() == nil {
		return c.Send(text, opts...)
	}

	err := c.Edit(text, opts...)
	if errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	return err
}

func (ctrl *Controller) getSession(ctx context.Context, c tele.Context) (model.Session, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
		return model.Session{}, err
	}
	return chatSession, nil
}

// setRoute remembers the shown screen. A session failure only costs the resume on /start.
func (ctrl *Controller) setRoute(ctx context.Context, c tele.Context, route model.Route) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.session.SetSession(ctx, strconv.FormatInt(c.Chat().ID, 10), model.Session{Route: route})
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
}
