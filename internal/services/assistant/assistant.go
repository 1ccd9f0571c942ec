// Package assistant is the scripted support guide: a small FAQ tree walked
// one choice at a time.
package assistant

import (
	"errors"
	"fmt"
	"sync"
)

// Main is the id of the root menu.
const Main = "main"

// ErrUnknownStep is returned for a menu id that does not exist.
var ErrUnknownStep = errors.New("unknown assistant step")

// ErrUnknownOption is returned for a choice the current menu does not offer.
var ErrUnknownOption = errors.New("unknown assistant option")

// Answer kinds mirror the alert styles of the dashboard.
const (
	KindInfo    = "info"
	KindWarning = "warning"
	KindSuccess = "success"
)

// Option is one button of a menu. It leads either to another menu or to an
// answer.
type Option struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Next   string  `json:"next,omitempty"`
	Answer *Answer `json:"-"`
}

// Answer is a canned reply.
type Answer struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Menu is a node of the FAQ tree.
type Menu struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

var menus = map[string]Menu{
	Main: {
		ID:     Main,
		Prompt: "Hello! Welcome to AgroPulse Support. Please select a topic to get started:",
		Options: []Option{
			{ID: "issues", Label: "Platform Issues", Next: "issues"},
			{ID: "guidance", Label: "Crop Guidance", Next: "guidance"},
			{ID: "market", Label: "Market Queries", Next: "market"},
		},
	},
	"issues": {
		ID:     "issues",
		Prompt: "I'm sorry you're facing trouble. What specific issue are you experiencing?",
		Options: []Option{
			{ID: "login", Label: "Login Problems", Answer: &Answer{KindInfo,
				"Admin pages need the admin token. Ask the site operator if you need access."}},
			{ID: "data", Label: "Data Not Loading", Answer: &Answer{KindWarning,
				"Check your internet connection. On a local server, make sure the market table and model files are present."}},
			{ID: "slow", Label: "App is Slow", Answer: &Answer{KindSuccess,
				"Models and price tables are loaded once at startup. Try clearing your browser cache or restarting the app."}},
		},
	},
	"guidance": {
		ID:     "guidance",
		Prompt: "AI Crop Guidance is my specialty. What would you like to know?",
		Options: []Option{
			{ID: "how", Label: "How Prediction Works?", Answer: &Answer{KindInfo,
				"Our Random Forest model analyzes soil (NPK), pH and weather (temperature, humidity, rain) to suggest the best crop for your land."}},
			{ID: "inaccurate", Label: "Inaccurate Results", Answer: &Answer{KindWarning,
				"Enter NPK values from a recent soil test report. Results marked unreliable have low model confidence."}},
			{ID: "new_crops", Label: "New Crop Requests", Answer: &Answer{KindSuccess,
				"We currently support 22 crops. New datasets are being trained for a future update."}},
		},
	},
	"market": {
		ID:     "market",
		Prompt: "I can help you understand market trends and prices.",
		Options: []Option{
			{ID: "delay", Label: "Mandi Price Delay", Answer: &Answer{KindInfo,
				"Our mandi data is updated periodically. For live prices, check the official Agmarknet portal."}},
			{ID: "state", Label: "State Not Found", Answer: &Answer{KindWarning,
				"When a state has no rows for your crop we show national prices instead."}},
			{ID: "forecast", Label: "Price Forecasting", Answer: &Answer{KindSuccess,
				"The market page shows moving averages and a trend label for each commodity."}},
		},
	},
}

// BackOption returns to the main menu from any submenu.
var BackOption = Option{ID: "back", Label: "Back to Main Menu", Next: Main}

// Lookup returns a menu by id. Submenus get the back option appended.
func Lookup(id string) (Menu, error) {
	m, ok := menus[id]
	if !ok {
		return Menu{}, fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	out := Menu{ID: m.ID, Prompt: m.Prompt, Options: append([]Option(nil), m.Options...)}
	if id != Main {
		out.Options = append(out.Options, BackOption)
	}
	return out, nil
}

// Reply is the result of one choice: the menu to show next and, for leaf
// options, the answer.
type Reply struct {
	Menu   Menu    `json:"menu"`
	Answer *Answer `json:"answer,omitempty"`
}

// Choose applies option on menu step. Answers keep the user on the same menu.
func Choose(step, option string) (Reply, error) {
	menu, err := Lookup(step)
	if err != nil {
		return Reply{}, err
	}
	for _, o := range menu.Options {
		if o.ID != option {
			continue
		}
		if o.Answer != nil {
			a := *o.Answer
			return Reply{Menu: menu, Answer: &a}, nil
		}
		next, err := Lookup(o.Next)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Menu: next}, nil
	}
	return Reply{}, fmt.Errorf("%w: %s on %s", ErrUnknownOption, option, step)
}

// Session tracks one user's position in the tree. It is safe for concurrent
// use.
type Session struct {
	mu   sync.Mutex
	step string
}

// NewSession starts at the main menu.
func NewSession() *Session {
	return &Session{step: Main}
}

// Current returns the menu the session is on.
func (s *Session) Current() Menu {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, _ := Lookup(s.step)
	return m
}

// Choose applies an option and advances the session.
func (s *Session) Choose(option string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := Choose(s.step, option)
	if err != nil {
		return Reply{}, err
	}
	s.step = r.Menu.ID
	return r, nil
}

// Reset goes back to the main menu.
func (s *Session) Reset() Menu {
	s.mu.Lock()
	s.step = Main
	s.mu.Unlock()
	m, _ := Lookup(Main)
	return m
}
