package attack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wlfwifi/wlfwifi/internal/config"
	"github.com/wlfwifi/wlfwifi/internal/result"
	"github.com/wlfwifi/wlfwifi/internal/telemetry"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// Kind names an attack family.
type Kind int

const (
	KindWEP Kind = iota
	KindWPA
	KindWPS
)

func (k Kind) String() string {
	switch k {
	case KindWEP:
		return "wep"
	case KindWPA:
		return "wpa"
	case KindWPS:
		return "wps"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Factory builds an attack bound to one target.
type Factory func(target *wifi.Target) Attack

// Tracker remembers which targets a run already went after.
type Tracker interface {
	WasAttacked(bssid string) bool
	MarkAttacked(bssid string)
	MarkCracked(bssid string)
}

// ResultSink stores finished results.
type ResultSink interface {
	Save(r *result.CrackResult) error
}

// Orchestrator picks the attack kinds for each target and drives them one
// at a time.
type Orchestrator struct {
	cfg       *config.Config
	factories map[Kind]Factory

	Status  func(StatusUpdate)
	Tracker Tracker
	Results ResultSink
}

func NewOrchestrator(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		factories: make(map[Kind]Factory),
	}
}

// Register installs the factory for kind, replacing any earlier one.
func (o *Orchestrator) Register(kind Kind, f Factory) {
	o.factories[kind] = f
}

// RegisterDefaults installs the WEP, WPA and WPS attacks.
func RegisterDefaults(o *Orchestrator, env *Env) {
	o.Register(KindWEP, func(t *wifi.Target) Attack { return NewWEPAttack(env, t) })
	o.Register(KindWPA, func(t *wifi.Target) Attack { return NewWPAAttack(env, t) })
	o.Register(KindWPS, func(t *wifi.Target) Attack { return NewWPSAttack(env, t) })
}

// KindsFor returns the attack kinds to try on target, in order. WPS comes
// first for flagged WPA targets, with the handshake capture as fallback.
func (o *Orchestrator) KindsFor(target *wifi.Target) []Kind {
	a := o.cfg.Attack
	var kinds []Kind
	switch {
	case target.IsWEP():
		if !a.WEPDisable {
			kinds = append(kinds, KindWEP)
		}
	case target.IsWPA():
		if target.WPS && !a.WPSDisable {
			kinds = append(kinds, KindWPS)
		}
		if !a.WPADisable {
			kinds = append(kinds, KindWPA)
		}
	}
	return kinds
}

// Drive runs atk and then always ends it, also when RunAttack fails, ctx is
// cancelled or RunAttack panics. EndAttack gets a context that outlives the
// cancellation so it can finish cleaning up.
func Drive(ctx context.Context, atk Attack) (err error) {
	defer func() {
		endErr := atk.EndAttack(context.WithoutCancel(ctx))
		if endErr != nil {
			err = errors.Join(err, fmt.Errorf("end attack: %w", endErr))
		}
	}()
	return atk.RunAttack(ctx)
}

// AttackTarget tries each applicable kind until one yields a result. A
// result holding only a handshake does not stop the chain from trying the
// next kind. ErrNotImplemented aborts immediately.
func (o *Orchestrator) AttackTarget(ctx context.Context, target *wifi.Target) (*result.CrackResult, error) {
	kinds := o.KindsFor(target)
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no applicable attacks for %s (%s)", target, target.Encryption)
	}
	if o.Tracker != nil {
		o.Tracker.MarkAttacked(target.Key())
	}

	var best *result.CrackResult
	var errs []error
	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		factory, ok := o.factories[kind]
		if !ok {
			return best, fmt.Errorf("%s attack: %w", kind, ErrNotImplemented)
		}
		atk := factory(target)
		if atk == nil {
			return best, fmt.Errorf("%s attack: %w", kind, ErrNotImplemented)
		}

		o.sendStatus(StatusUpdate{Attack: kind.String(), Target: target.String(), Message: "Starting...", Progress: -1})
		if o.cfg.Verbose {
			log.Printf("[attack] %s on %s", kind, target)
		}

		start := time.Now()
		err := Drive(ctx, atk)
		res := resultOf(atk)
		o.observe(kind, res, err, time.Since(start))

		if errors.Is(err, ErrNotImplemented) {
			return best, err
		}
		if res != nil && res.Useful() {
			o.store(res)
			if best == nil || res.Cracked() {
				best = res
			}
		}
		if res != nil && res.Cracked() {
			if o.Tracker != nil {
				o.Tracker.MarkCracked(target.Key())
			}
			o.sendStatus(StatusUpdate{Attack: kind.String(), Target: target.String(), Message: "Key found!", Progress: 1, Done: true, Success: true})
			return res, nil
		}
		if err != nil {
			o.sendStatus(StatusUpdate{Attack: kind.String(), Target: target.String(), Message: fmt.Sprintf("Failed: %v", err), Progress: -1, Done: true})
			if o.cfg.Verbose {
				log.Printf("[attack] %s failed on %s: %v", kind, target, err)
			}
			if ctx.Err() != nil {
				return best, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, errors.Join(errs...)
}

// AttackAll attacks targets in order, skipping ones the tracker already
// knows. It stops at cancellation and on ErrNotImplemented; other failures
// move on to the next target.
func (o *Orchestrator) AttackAll(ctx context.Context, targets []*wifi.Target) ([]*result.CrackResult, error) {
	var results []*result.CrackResult
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if o.Tracker != nil && o.Tracker.WasAttacked(target.Key()) {
			if o.cfg.Verbose {
				log.Printf("[attack] skipping %s, already attacked", target)
			}
			continue
		}

		res, err := o.AttackTarget(ctx, target)
		if res != nil {
			results = append(results, res)
		}
		if errors.Is(err, ErrNotImplemented) {
			return results, err
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

func (o *Orchestrator) store(res *result.CrackResult) {
	if o.Results == nil {
		return
	}
	if err := o.Results.Save(res); err != nil {
		log.Printf("[attack] saving result for %s: %v", res.BSSID, err)
	}
}

func (o *Orchestrator) observe(kind Kind, res *result.CrackResult, err error, took time.Duration) {
	outcome := telemetry.OutcomeFailed
	switch {
	case res != nil && res.Cracked():
		outcome = telemetry.OutcomeCracked
	case res != nil && res.Useful():
		outcome = telemetry.OutcomeHandshake
	case errors.Is(err, context.Canceled):
		outcome = telemetry.OutcomeAborted
	}
	telemetry.ObserveAttack(kind.String(), outcome, took)
}

func (o *Orchestrator) sendStatus(s StatusUpdate) {
	if o.Status != nil {
		o.Status(s)
	}
}

func resultOf(atk Attack) *result.CrackResult {
	if r, ok := atk.(Reporter); ok {
		return r.Result()
	}
	return nil
}
