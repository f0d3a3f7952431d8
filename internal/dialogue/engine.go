// Package dialogue implements the booking conversation state machine.
// Each inbound message is matched against a priority-ordered rule list;
// the first rule that fires produces exactly one reply and at most one
// profile mutation.
package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luminebeauty/booking-assistant/internal/calendar"
	"github.com/luminebeauty/booking-assistant/internal/chat"
	"github.com/luminebeauty/booking-assistant/internal/extract"
	"github.com/luminebeauty/booking-assistant/internal/observability/metrics"
	"github.com/luminebeauty/booking-assistant/internal/profile"
	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

// SlotScheduler is the slice of the calendar scheduler the engine needs.
type SlotScheduler interface {
	Location() *time.Location
	ListFreeSlots(ctx context.Context, date time.Time) []string
	IsSlotFree(ctx context.Context, date time.Time, hhmm string) bool
	SlotTime(date time.Time, hhmm string) (time.Time, error)
	Reserve(ctx context.Context, start, end time.Time, cust calendar.Customer, service string) (*calendar.Reservation, error)
}

// HistoryStore records confirmed reservations for later lookup.
type HistoryStore interface {
	Append(ctx context.Context, userID string, r calendar.Reservation) error
}

// Responder handles messages no booking rule claims.
type Responder interface {
	Respond(ctx context.Context, snap chat.Snapshot, message string) string
}

const triggerWord = "預約"

var (
	cancelWords  = []string{"取消"}
	statusWords  = []string{"查詢", "進度", "我的預約"}
	greetWords   = []string{"哈囉", "你好", "妳好", "嗨", "hi", "hello", "早安", "午安", "晚安"}
	confirmExact = []string{"好", "好的", "是", "是的", "ok", "yes", "沒問題", "確定"}
)

// Engine drives the booking conversation.
type Engine struct {
	profiles   profile.Store
	scheduler  SlotScheduler
	extractor  *extract.Extractor
	assistant  Responder
	history    HistoryStore
	catalog    Catalog
	sessionGap time.Duration
	logger     *logging.Logger
	metrics    *metrics.BotMetrics
	now        func() time.Time
}

type Option func(*Engine)

// WithHistory enables durable booking history writes after a confirmed
// reservation.
func WithHistory(h HistoryStore) Option {
	return func(e *Engine) { e.history = h }
}

func WithMetrics(m *metrics.BotMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(profiles profile.Store, scheduler SlotScheduler, extractor *extract.Extractor, assistant Responder, catalog Catalog, sessionGap time.Duration, logger *logging.Logger, opts ...Option) *Engine {
	if profiles == nil {
		panic("dialogue: profile store is required")
	}
	if scheduler == nil {
		panic("dialogue: scheduler is required")
	}
	if extractor == nil {
		panic("dialogue: extractor is required")
	}
	if assistant == nil {
		panic("dialogue: assistant is required")
	}
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	if sessionGap <= 0 {
		sessionGap = 30 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}

	e := &Engine{
		profiles:   profiles,
		scheduler:  scheduler,
		extractor:  extractor,
		assistant:  assistant,
		catalog:    catalog,
		sessionGap: sessionGap,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleMessage processes one inbound message and returns the single
// outbound reply. Rule evaluation never errors; only the profile store
// can fail the turn.
func (e *Engine) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	started := e.now()

	p, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("dialogue: load profile %s: %w", userID, err)
	}

	msg := strings.TrimSpace(text)
	now := e.now()

	// Session-gap greeting prepends, it never short-circuits the rules.
	prefix := ""
	if p.Name != "" && !p.LastInteraction.IsZero() && now.Sub(p.LastInteraction) > e.sessionGap {
		prefix = msgWelcomeBack(p.Name) + "\n"
	}
	p.LastInteraction = now

	rule, reply := e.dispatch(ctx, p, msg)

	if err := e.profiles.Update(ctx, p); err != nil {
		return "", fmt.Errorf("dialogue: persist profile %s: %w", userID, err)
	}

	e.metrics.ObserveTurn(rule, e.now().Sub(started).Seconds())
	e.logger.Info("turn handled",
		"user_id", userID,
		"rule", rule,
		"state", string(p.State),
	)

	return prefix + reply, nil
}

// dispatch walks the rule list in priority order. It returns the name of
// the rule that fired (for metrics) and the reply text.
func (e *Engine) dispatch(ctx context.Context, p *profile.Profile, msg string) (string, string) {
	lower := strings.ToLower(msg)

	if containsAny(msg, cancelWords) && (p.BookingActive() || p.PendingDate != "") {
		p.ClearPending()
		p.State = profile.StateNew
		return "cancel", msgCancelled
	}

	if containsAny(msg, statusWords) {
		return "status", e.statusReply(p)
	}

	if isGreeting(lower) {
		if p.Name == "" {
			p.State = profile.StateCollectingName
			return "greeting", msgAskName
		}
		return "greeting", msgGreetKnown(p.Name)
	}

	if !p.HasIdentity() && !p.BookingActive() && !strings.Contains(msg, triggerWord) {
		return "identity", e.collectIdentity(p, msg)
	}

	if p.State == profile.StateAskService {
		if svc, ok := e.catalog.Match(msg); ok {
			p.SelectedService = svc.Name
			p.State = profile.StateAskDate
			return "service", msgGotService(svc.Name)
		}
		return "service", msgServiceRetry(e.catalog.Menu())
	}

	if p.State == profile.StateAskDate || strings.Contains(msg, triggerWord) {
		return "date", e.collectDate(ctx, p, msg)
	}

	if p.State == profile.StateAskTime && p.PendingDate != "" {
		return "time", e.collectTime(ctx, p, msg)
	}

	if p.State == profile.StateConfirming && p.PendingDate != "" && p.PendingTime != "" {
		return "confirm", e.confirm(ctx, p, lower)
	}

	snap := chat.Snapshot{
		Name:             p.Name,
		Phone:            p.Phone,
		FavoriteServices: p.FavoriteServices,
	}
	if p.LastBooking != nil {
		snap.LastBooking = fmt.Sprintf("%s %s %s",
			p.LastBooking.Start.Format("2006-01-02"),
			p.LastBooking.Start.Format("15:04"),
			p.LastBooking.Service,
		)
	}
	return "fallback", e.assistant.Respond(ctx, snap, msg)
}

func (e *Engine) statusReply(p *profile.Profile) string {
	if p.PendingDate != "" {
		return msgPendingStatus(p.SelectedService, p.PendingDate, p.PendingTime)
	}
	if p.LastBooking != nil {
		return msgLastBooking(
			p.LastBooking.Service,
			p.LastBooking.Start.Format("2006-01-02"),
			p.LastBooking.Start.Format("15:04"),
		)
	}
	return msgNoBookings
}

// collectIdentity fills name then phone. A single "name phone" message
// is split in one turn; a bare 8 to 12 digit string is a phone number.
func (e *Engine) collectIdentity(p *profile.Profile, msg string) string {
	if name, phone, ok := splitNamePhone(msg); ok {
		p.Name = name
		p.Phone = phone
	} else if isPhone(msg) {
		p.Phone = msg
	} else if allDigits(msg) {
		return msgAskPhone
	} else if p.Name == "" {
		p.Name = msg
	}

	switch {
	case p.HasIdentity():
		p.State = profile.StateAskService
		return fmt.Sprintf("謝謝%s！", p.Name) + msgAskService(e.catalog.Menu())
	case p.Name == "":
		p.State = profile.StateCollectingName
		return msgAskName
	default:
		p.State = profile.StateCollectingPhone
		return msgGotName(p.Name)
	}
}

// collectDate handles the booking trigger and the ASK_DATE state. A
// combined date plus time match can jump straight to confirmation.
func (e *Engine) collectDate(ctx context.Context, p *profile.Profile, msg string) string {
	if !p.HasIdentity() {
		if p.Name == "" {
			p.State = profile.StateCollectingName
			return msgAskName
		}
		p.State = profile.StateCollectingPhone
		return msgAskPhone
	}
	if p.SelectedService == "" && p.State != profile.StateAskDate {
		p.State = profile.StateAskService
		return msgAskService(e.catalog.Menu())
	}

	// Re-entering date collection from a later state drops the staged
	// draft; ASK_DATE never carries pending fields.
	p.State = profile.StateAskDate
	p.PendingDate = ""
	p.PendingTime = ""
	res := e.extractor.Extract(msg)
	if res.Date == nil {
		return msgAskDateRetry
	}
	return e.draftSlot(ctx, p, res)
}

// draftSlot stages the extracted date, and time when present, against the
// live calendar.
func (e *Engine) draftSlot(ctx context.Context, p *profile.Profile, res extract.Result) string {
	date := res.Date.String()
	day := res.Date.At(e.scheduler.Location())

	if res.Time != nil {
		hhmm := res.Time.String()
		if e.scheduler.IsSlotFree(ctx, day, hhmm) {
			p.SetPendingDate(date)
			if err := p.SetPendingTime(hhmm); err != nil {
				e.logger.Error("pending time rejected", "user_id", p.UserID, "error", err)
				return msgAskDateRetry
			}
			p.State = profile.StateConfirming
			return msgConfirm(e.serviceName(p), date, hhmm)
		}
		slots := e.scheduler.ListFreeSlots(ctx, day)
		if len(slots) == 0 {
			return msgDayFull
		}
		p.SetPendingDate(date)
		p.State = profile.StateAskTime
		return msgSlotTaken(hhmm, formatSlots(slots))
	}

	slots := e.scheduler.ListFreeSlots(ctx, day)
	if len(slots) == 0 {
		return msgDayFull
	}
	p.SetPendingDate(date)
	p.State = profile.StateAskTime
	return msgSlotList(date, formatSlots(slots))
}

func (e *Engine) collectTime(ctx context.Context, p *profile.Profile, msg string) string {
	res := e.extractor.Extract(msg)
	if res.Date != nil {
		// A fresh date restarts the draft; the staged date and time no
		// longer apply.
		p.State = profile.StateAskDate
		p.PendingDate = ""
		p.PendingTime = ""
		return e.draftSlot(ctx, p, res)
	}
	if res.Time == nil {
		return msgAskTimeRetry
	}

	day, err := e.pendingDay(p)
	if err != nil {
		e.logger.Error("pending date unparsable", "user_id", p.UserID, "date", p.PendingDate, "error", err)
		p.ClearPending()
		p.State = profile.StateAskDate
		return msgAskDateRetry
	}

	hhmm := res.Time.String()
	if e.scheduler.IsSlotFree(ctx, day, hhmm) {
		if err := p.SetPendingTime(hhmm); err != nil {
			e.logger.Error("pending time rejected", "user_id", p.UserID, "error", err)
			return msgAskTimeRetry
		}
		p.State = profile.StateConfirming
		return msgConfirm(e.serviceName(p), p.PendingDate, hhmm)
	}

	slots := e.scheduler.ListFreeSlots(ctx, day)
	if len(slots) == 0 {
		p.ClearPending()
		p.State = profile.StateAskDate
		return msgDayFull
	}
	return msgSlotTaken(hhmm, formatSlots(slots))
}

// confirm re-validates the drafted slot and writes the reservation. The
// gap between the earlier availability check and this write is real, so
// the slot is checked again and the write is verified downstream.
func (e *Engine) confirm(ctx context.Context, p *profile.Profile, lower string) string {
	if !isConfirmation(lower) {
		return msgConfirmRetry
	}

	day, err := e.pendingDay(p)
	if err != nil {
		e.logger.Error("pending date unparsable", "user_id", p.UserID, "date", p.PendingDate, "error", err)
		p.ClearPending()
		p.State = profile.StateAskDate
		return msgAskDateRetry
	}

	if !e.scheduler.IsSlotFree(ctx, day, p.PendingTime) {
		slots := e.scheduler.ListFreeSlots(ctx, day)
		p.PendingTime = ""
		p.State = profile.StateAskTime
		if len(slots) == 0 {
			p.ClearPending()
			p.State = profile.StateAskDate
			return msgSlotTakenAgain + msgDayFull
		}
		return msgSlotTakenAgain + "還有這些時段可以選：\n" + formatSlots(slots)
	}

	start, err := e.scheduler.SlotTime(day, p.PendingTime)
	if err != nil {
		e.logger.Error("pending time unparsable", "user_id", p.UserID, "time", p.PendingTime, "error", err)
		p.PendingTime = ""
		p.State = profile.StateAskTime
		return msgAskTimeRetry
	}
	service := e.serviceName(p)
	end := start.Add(e.catalog.DurationOf(p.SelectedService))

	res, err := e.scheduler.Reserve(ctx, start, end, calendar.Customer{Name: p.Name, Phone: p.Phone}, service)
	if err != nil {
		e.logger.Error("reservation failed",
			"user_id", p.UserID,
			"start", start,
			"service", service,
			"error", err,
		)
		return msgReserveFailed
	}

	if e.history != nil {
		// A failed history write leaves the calendar event without a
		// local record; see the consistency note in DESIGN.md.
		if err := e.history.Append(ctx, p.UserID, *res); err != nil {
			e.logger.Error("booking history write failed", "user_id", p.UserID, "event_id", res.EventID, "error", err)
		}
	}

	date := p.PendingDate
	p.LastBooking = res
	p.AddFavoriteService(res.Service)
	p.ClearPending()
	p.State = profile.StateIdle

	return msgBooked(res.Service, date, res.Start.Format("15:04"), res.End.Format("15:04"), res.Link)
}

func (e *Engine) serviceName(p *profile.Profile) string {
	if p.SelectedService != "" {
		return p.SelectedService
	}
	return "服務"
}

func (e *Engine) pendingDay(p *profile.Profile) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", p.PendingDate, e.scheduler.Location())
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func isGreeting(lower string) bool {
	for _, w := range greetWords {
		if lower == w {
			return true
		}
	}
	// Short messages that lead with a greeting still count.
	if len([]rune(lower)) <= 8 {
		for _, w := range greetWords {
			if strings.HasPrefix(lower, w) {
				return true
			}
		}
	}
	return false
}

func isConfirmation(lower string) bool {
	if strings.Contains(lower, "確認") {
		return true
	}
	for _, w := range confirmExact {
		if lower == w {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isPhone(s string) bool {
	return allDigits(s) && len(s) >= 8 && len(s) <= 12
}

// splitNamePhone recognizes a "王小明 0912345678" style message that
// delivers name and phone in one turn.
func splitNamePhone(msg string) (name, phone string, ok bool) {
	fields := strings.Fields(msg)
	if len(fields) < 2 {
		return "", "", false
	}
	last := fields[len(fields)-1]
	if !isPhone(last) {
		return "", "", false
	}
	name = strings.Join(fields[:len(fields)-1], "")
	if name == "" || allDigits(name) {
		return "", "", false
	}
	return name, last, true
}
