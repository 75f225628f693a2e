package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/jobpilot/internal/fetch"
	"github.com/jonathan/jobpilot/internal/types"
)

// formSelectors are the known application form fields, each with an ordered
// first-hit selector list.
var formSelectors = map[string][]string{
	"first_name": {`input[name="first_name"]`, `input[id*="first_name"]`, `input[autocomplete="given-name"]`},
	"last_name":  {`input[name="last_name"]`, `input[id*="last_name"]`, `input[autocomplete="family-name"]`},
	"name":       {`input[name="name"]`, `input[id="name"]`, `input[autocomplete="name"]`},
	"email":      {`input[type="email"]`, `input[name="email"]`, `input[id*="email"]`},
	"phone":      {`input[type="tel"]`, `input[name="phone"]`, `input[id*="phone"]`},
	"resume":     {`textarea[name="resume_text"]`, `textarea[id*="resume"]`, `textarea[name="resume"]`},
	"cover":      {`textarea[name="cover_letter"]`, `textarea[id*="cover"]`},
}

var submitSelectors = []string{
	`button[type="submit"]`,
	`input[type="submit"]`,
	`button[id*="submit"]`,
	`button[class*="submit"]`,
}

var confirmationSelectors = []string{
	`div[class*="confirmation"]`,
	`div[class*="success"]`,
	`h1, h2`,
}

// captchaSelector detects the common captcha widgets on the loaded form.
const captchaSelector = `iframe[src*="recaptcha"], iframe[src*="hcaptcha"], div.g-recaptcha`

// BrowserStrategy drives a headless browser through the live application
// form. It never retries automatically once a mutating step has run.
type BrowserStrategy struct {
	disabled bool
}

// NewBrowserStrategy constructs the strategy. disabled short-circuits every
// submission, which test environments use to avoid launching Chrome.
func NewBrowserStrategy(disabled bool) *BrowserStrategy {
	return &BrowserStrategy{disabled: disabled}
}

// Name implements Strategy.
func (s *BrowserStrategy) Name() string { return "browser" }

// AppliesTo implements Strategy. Any posting with a submit URL can be
// attempted through the browser.
func (s *BrowserStrategy) AppliesTo(job *types.JobPosting) bool {
	return job.SubmitURL() != ""
}

// Submit runs the form flow: navigate, wait for known fields, fill, submit,
// capture the confirmation text. Failures after the submit click are marked
// mutated so they are never auto-retried.
func (s *BrowserStrategy) Submit(ctx context.Context, req *SubmitRequest) (*Outcome, error) {
	if s.disabled {
		return &Outcome{
			Method:           types.MethodBrowser,
			ApplicationURL:   req.Job.SubmitURL(),
			ConfirmationText: "browser automation disabled",
			Steps:            []types.AutomationStep{step("short_circuit", "browser automation disabled", true)},
		}, nil
	}

	browserCtx, cancel := fetch.NewBrowserContext(ctx)
	defer cancel()

	var steps []types.AutomationStep
	run := func(name string, timeout time.Duration, actions ...chromedp.Action) error {
		stepCtx, cancelStep := context.WithTimeout(browserCtx, timeout)
		defer cancelStep()
		err := chromedp.Run(stepCtx, actions...)
		steps = append(steps, step(name, "", err == nil))
		return err
	}

	submitURL := req.Job.SubmitURL()
	if err := run("navigate", fetch.DefaultBrowserStepTimeout,
		chromedp.Navigate(submitURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return nil, &SubmitError{Class: FailureNetwork, Message: "failed to open application form", Cause: err}
	}

	var captchaCount int
	_ = chromedp.Run(browserCtx, chromedp.Evaluate(
		fmt.Sprintf(`document.querySelectorAll(%q).length`, captchaSelector), &captchaCount))
	if captchaCount > 0 {
		return nil, &SubmitError{Class: FailureCaptcha, Message: "captcha present on form"}
	}

	fields := map[string]string{
		"first_name": req.User.FirstName,
		"last_name":  req.User.LastName,
		"name":       strings.TrimSpace(req.User.FirstName + " " + req.User.LastName),
		"email":      req.User.Email,
		"phone":      req.User.Phone,
		"resume":     req.Packet.ResumeText,
		"cover":      req.Packet.CoverLetterText,
	}
	filled := 0
	for field, value := range fields {
		if value == "" {
			continue
		}
		if s.fillFirst(browserCtx, formSelectors[field], value) {
			filled++
			steps = append(steps, step("fill_"+field, "", true))
		}
	}
	if filled == 0 {
		return nil, &SubmitError{Class: FailureFormSchemaMismatch, Message: "no known form fields found on page"}
	}

	// From here on the page may mutate remote state; failures are terminal.
	if err := run("click_submit", fetch.DefaultBrowserStepTimeout,
		chromedp.Click(strings.Join(submitSelectors, ", "), chromedp.NodeVisible),
	); err != nil {
		return nil, &SubmitError{Class: FailureFormSchemaMismatch, Message: "submit control not found", Cause: err}
	}

	var confirmation string
	if err := run("capture_confirmation", fetch.DefaultBrowserStepTimeout,
		chromedp.Sleep(3*time.Second),
		chromedp.Text(strings.Join(confirmationSelectors, ", "), &confirmation, chromedp.AtLeast(0)),
	); err != nil {
		return nil, &SubmitError{Class: FailureUnknown, Message: "failed to capture confirmation", Mutated: true, Cause: err}
	}

	return &Outcome{
		Method:           types.MethodBrowser,
		ApplicationURL:   submitURL,
		ConfirmationText: strings.TrimSpace(confirmation),
		Steps:            steps,
	}, nil
}

// fillFirst sends the value to the first selector that resolves.
func (s *BrowserStrategy) fillFirst(ctx context.Context, selectors []string, value string) bool {
	for _, sel := range selectors {
		fillCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := chromedp.Run(fillCtx, chromedp.SendKeys(sel, value, chromedp.NodeVisible))
		cancel()
		if err == nil {
			return true
		}
	}
	return false
}
