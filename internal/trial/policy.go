// Package trial вычисляет состояние пробного периода пользователя.
//
// Policy — чистая функция от записи пользователя и текущего времени:
// без хранилищ, без сети, без паники на неполных данных. Всё, что не
// похоже на активный триал, трактуется как «триала нет».
package trial

import (
	"fmt"
	"slices"
	"time"

	"github.com/advileads/advileads/internal/models"
)

const day = 24 * time.Hour

// Тексты уведомлений о триале.
const (
	MessageTwoDaysLeft = "Your trial expires in 2 days. Upgrade now to continue accessing premium leads!"
	MessageLastDay     = "Your trial expires tomorrow! Don't lose access to your leads."
	MessageExpired     = "Your trial has expired. Upgrade now to restore access to all features."
)

// Options настраиваемые константы пробного периода.
type Options struct {
	DurationDays     int            // длительность триала в днях
	WarningDays      []int          // дни триала, в которые отправляется предупреждение
	ExpiringSoonDays int            // порог «скоро истекает» по оставшимся дням
	Location         *time.Location // часовой пояс для сравнения календарных дат
}

// DefaultOptions возвращает значения по умолчанию: 14 дней, предупреждения
// на 12, 13 и 14 день, «скоро истекает» при трёх и менее оставшихся днях.
func DefaultOptions() Options {
	return Options{
		DurationDays:     14,
		WarningDays:      DefaultWarningDays(14),
		ExpiringSoonDays: 3,
		Location:         time.Local,
	}
}

// DefaultWarningDays последние три дня триала длительностью durationDays.
func DefaultWarningDays(durationDays int) []int {
	days := make([]int, 0, 3)
	for n := durationDays - 2; n <= durationDays; n++ {
		if n > 0 {
			days = append(days, n)
		}
	}
	return days
}

// Status производное состояние триала, никогда не сохраняется.
type Status struct {
	DaysLeft          int       `json:"days_left"`
	TrialDay          int       `json:"trial_day"`
	IsExpired         bool      `json:"is_expired"`
	IsExpiringSoon    bool      `json:"is_expiring_soon"`
	ShouldShowWarning bool      `json:"should_show_warning"`
	TrialEndDate      time.Time `json:"trial_end_date"`
}

// Policy вычисляет состояние триала относительно часов now.
type Policy struct {
	opts Options
	now  func() time.Time
}

// NewPolicy создает Policy. Незаполненные поля opts берутся из DefaultOptions,
// nil now заменяется на time.Now.
func NewPolicy(opts Options, now func() time.Time) *Policy {
	def := DefaultOptions()
	if opts.DurationDays <= 0 {
		opts.DurationDays = def.DurationDays
	}
	if len(opts.WarningDays) == 0 {
		opts.WarningDays = DefaultWarningDays(opts.DurationDays)
	}
	if opts.ExpiringSoonDays <= 0 {
		opts.ExpiringSoonDays = def.ExpiringSoonDays
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if now == nil {
		now = time.Now
	}
	return &Policy{opts: opts, now: now}
}

// Options возвращает действующие настройки.
func (p *Policy) Options() Options {
	return p.opts
}

// Duration длительность триала.
func (p *Policy) Duration() time.Duration {
	return time.Duration(p.opts.DurationDays) * day
}

// Now текущее время по часам политики.
func (p *Policy) Now() time.Time {
	return p.now()
}

func (p *Policy) activeTrialStart(u *models.User) (time.Time, bool) {
	if u == nil || u.MembershipStatus != models.MembershipTrial {
		return time.Time{}, false
	}
	if u.TrialStartDate == nil || u.TrialStartDate.IsZero() {
		return time.Time{}, false
	}
	return *u.TrialStartDate, true
}

// ceilDays округляет длительность вверх до целых суток.
func ceilDays(d time.Duration) int {
	n := d / day
	if d%day > 0 {
		n++
	}
	return int(n)
}

// Status вычисляет состояние триала.
func (p *Policy) Status(u *models.User) Status {
	now := p.now()
	start, ok := p.activeTrialStart(u)
	if !ok {
		return Status{
			DaysLeft:     0,
			IsExpired:    true,
			TrialEndDate: now,
		}
	}

	end := start.Add(p.Duration())
	daysLeft := ceilDays(end.Sub(now))
	trialDay := p.opts.DurationDays - daysLeft

	return Status{
		DaysLeft:          max(0, daysLeft),
		TrialDay:          trialDay,
		IsExpired:         daysLeft <= 0,
		IsExpiringSoon:    daysLeft > 0 && daysLeft <= p.opts.ExpiringSoonDays,
		ShouldShowWarning: slices.Contains(p.opts.WarningDays, trialDay),
		TrialEndDate:      end,
	}
}

// ShouldSendNotification сообщает, нужно ли сейчас отправить уведомление о триале.
// Повтор в тот же календарный день (в Options.Location) подавляется.
func (p *Policy) ShouldSendNotification(u *models.User) bool {
	if u == nil || u.MembershipStatus != models.MembershipTrial {
		return false
	}
	if !p.Status(u).ShouldShowWarning {
		return false
	}
	if u.LastTrialNotification != nil && p.SameDay(*u.LastTrialNotification, p.now()) {
		return false
	}
	return true
}

// SameDay сравнивает календарные даты a и b в часовом поясе политики.
func (p *Policy) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(p.opts.Location).Date()
	by, bm, bd := b.In(p.opts.Location).Date()
	return ay == by && am == bm && ad == bd
}

// NotificationMessage возвращает текст уведомления для дня триала n.
// Ключ — номер дня, а не остаток: последний день триала даёт текст
// об истечении, за день и за два — свои тексты. Текст о начале
// триала живёт в приветственном уведомлении.
func (p *Policy) NotificationMessage(n int) string {
	switch p.opts.DurationDays - n {
	case 2:
		return MessageTwoDaysLeft
	case 1:
		return MessageLastDay
	case 0:
		return MessageExpired
	default:
		return fmt.Sprintf("You are on day %d of your %d-day free trial. Upgrade now to continue!", n, p.opts.DurationDays)
	}
}

// ShouldRestrictAccess сообщает, нужно ли закрыть доступ к платным разделам.
func (p *Policy) ShouldRestrictAccess(u *models.User) bool {
	if u == nil {
		return true
	}
	switch u.MembershipStatus {
	case models.MembershipActive:
		return false
	case models.MembershipExpired:
		return true
	}
	return p.Status(u).IsExpired
}

// Progress доля прошедшего триала в процентах, в диапазоне [0, 100].
func (p *Policy) Progress(u *models.User) float64 {
	start, ok := p.activeTrialStart(u)
	if !ok {
		return 0
	}
	elapsed := p.now().Sub(start)
	pct := float64(elapsed) / float64(p.Duration()) * 100
	return min(100, max(0, pct))
}

// FormatEndDate дата окончания триала в виде "January 2, 2006" либо "N/A".
func (p *Policy) FormatEndDate(u *models.User) string {
	if u == nil || u.TrialStartDate == nil || u.TrialStartDate.IsZero() {
		return "N/A"
	}
	end := u.TrialStartDate.Add(p.Duration())
	return end.In(p.opts.Location).Format("January 2, 2006")
}

// Badge короткая метка состояния триала для интерфейса.
type Badge struct {
	Label string `json:"label"`
	Level string `json:"level"` // expired, expiring, notice, ok
}

// Badge подбирает метку по количеству оставшихся дней.
func (p *Policy) Badge(daysLeft int) Badge {
	switch {
	case daysLeft <= 0:
		return Badge{Label: "Expired", Level: "expired"}
	case daysLeft <= p.opts.ExpiringSoonDays:
		return Badge{Label: "Expiring Soon", Level: "expiring"}
	case daysLeft <= 7:
		return Badge{Label: "Active Trial", Level: "notice"}
	default:
		return Badge{Label: "Active Trial", Level: "ok"}
	}
}
