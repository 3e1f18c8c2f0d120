// Package pixel drives the browser pixel agent. Calls made before the
// agent reports loaded are dropped, not queued.
package pixel

import (
	"sync/atomic"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
)

// ConsentAction is the argument of the pixel consent command.
type ConsentAction string

// Consent actions.
const (
	ConsentGrant  ConsentAction = "grant"
	ConsentRevoke ConsentAction = "revoke"
)

// Agent is the pixel call surface (fbq).
type Agent interface {
	Init(pixelID string)
	Track(name domain.EventName, customData map[string]any, eventID string)
	PageView()
	Consent(action ConsentAction)
}

// Pixel guards an Agent with its load state.
type Pixel struct {
	agent  Agent
	loaded atomic.Bool
	debug  bool
	log    infralogger.Logger
}

// New wraps agent. The pixel starts in the not-loaded state.
func New(agent Agent, log infralogger.Logger, debug bool) *Pixel {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Pixel{agent: agent, debug: debug, log: log}
}

// MarkLoaded records the agent's load signal. It reports whether this
// call performed the transition.
func (p *Pixel) MarkLoaded() bool {
	return p.loaded.CompareAndSwap(false, true)
}

// Loaded reports whether the agent has signaled loaded.
func (p *Pixel) Loaded() bool {
	return p.loaded.Load()
}

// Init initializes the agent for pixelID.
func (p *Pixel) Init(pixelID string) bool {
	if !p.ready() {
		return false
	}
	p.debugf("Facebook Pixel: Init", infralogger.String("pixel_id", pixelID))
	p.agent.Init(pixelID)
	return true
}

// PageView tracks a page view.
func (p *Pixel) PageView() bool {
	if !p.ready() {
		return false
	}
	p.debugf("Facebook Pixel: PageView")
	p.agent.PageView()
	return true
}

// Track sends ev to the agent with its event id as the dedup key.
func (p *Pixel) Track(ev domain.BrowserEvent) bool {
	if !p.ready() {
		return false
	}
	p.debugf("Facebook Pixel: Track",
		infralogger.String("event_name", string(ev.EventName)),
		infralogger.String("event_id", ev.EventID),
		infralogger.Any("custom_data", ev.CustomData),
	)
	p.agent.Track(ev.EventName, ev.CustomData, ev.EventID)
	return true
}

// GrantConsent grants tracking consent.
func (p *Pixel) GrantConsent() bool {
	return p.consent(ConsentGrant)
}

// RevokeConsent revokes tracking consent.
func (p *Pixel) RevokeConsent() bool {
	return p.consent(ConsentRevoke)
}

func (p *Pixel) consent(action ConsentAction) bool {
	if !p.ready() {
		return false
	}
	p.debugf("Facebook Pixel: Consent", infralogger.String("action", string(action)))
	p.agent.Consent(action)
	return true
}

func (p *Pixel) ready() bool {
	return p != nil && p.agent != nil && p.loaded.Load()
}

func (p *Pixel) debugf(msg string, fields ...infralogger.Field) {
	if p.debug {
		p.log.Debug(msg, fields...)
	}
}
