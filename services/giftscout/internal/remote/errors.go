// Package remote classifies failures of MTProto calls into the few classes
// the crawler cares about: retry later, skip this user, or stop everything.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/tgerr"
)

type Kind int

const (
	// KindOther: ошибка в рамках одного юзера/запроса; обход продолжается.
	KindOther Kind = iota
	// KindRateLimited: FLOOD_WAIT, ждем RetryAfter и можно повторить один раз.
	KindRateLimited
	// KindLockout: аккаунт-парсер забанен/заморожен/разлогинен. Фатально.
	KindLockout
	// KindHidden: цель существует, но список подарков недоступен.
	KindHidden
	// KindCanceled: отменено оператором или shutdown.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindLockout:
		return "lockout"
	case KindHidden:
		return "hidden"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// ErrLockout матчится через errors.Is на любую ошибку класса KindLockout.
var ErrLockout = errors.New("remote: crawling account is locked out")

// Error: уже классифицированная ошибка удаленного вызова.
type Error struct {
	Kind       Kind
	Op         string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrLockout && e.Kind == KindLockout
}

// Telegram отдает бан/заморозку разными кодами, не только 401/403.
var lockoutTypes = []string{
	"USER_DEACTIVATED",
	"USER_DEACTIVATED_BAN",
	"SESSION_REVOKED",
	"SESSION_EXPIRED",
	"AUTH_KEY_UNREGISTERED",
	"AUTH_KEY_INVALID",
	"AUTH_KEY_DUPLICATED",
	"PHONE_NUMBER_BANNED",
	"FROZEN_METHOD_INVALID",
	"FROZEN_PARTICIPANT_MISSING",
}

// 403, который относится к цели запроса, а не к нашему аккаунту.
var hiddenTypes = []string{
	"USER_PRIVACY_RESTRICTED",
}

// Classify раскладывает ошибку по классам. nil -> (KindOther, 0), проверяйте err отдельно.
func Classify(err error) (Kind, time.Duration) {
	if err == nil {
		return KindOther, 0
	}

	var re *Error
	if errors.As(err, &re) {
		return re.Kind, re.RetryAfter
	}

	if errors.Is(err, context.Canceled) {
		return KindCanceled, 0
	}

	rpcErr, ok := tgerr.As(err)
	if !ok {
		return KindOther, 0
	}
	if tgerr.Is(err, hiddenTypes...) {
		return KindHidden, 0
	}
	if tgerr.Is(err, lockoutTypes...) {
		return KindLockout, 0
	}
	if d, ok := tgerr.AsFloodWait(err); ok {
		return KindRateLimited, d
	}
	switch rpcErr.Code {
	case 401, 403:
		return KindLockout, 0
	case 420:
		return KindRateLimited, time.Duration(rpcErr.Argument) * time.Second
	}
	return KindOther, 0
}

// Wrap классифицирует err и заворачивает в *Error с описанием вызова.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	kind, after := Classify(err)
	return &Error{Kind: kind, Op: op, RetryAfter: after, Err: err}
}

func IsLockout(err error) bool {
	k, _ := Classify(err)
	return k == KindLockout
}
