package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalysisService runs the full detection pipeline for one message at a
// time: structural analyzers, threat-store lookups, rule evaluation and
// score fusion. Analyses of different messages are independent; a failure in
// one never corrupts another.
type AnalysisService struct {
	store       ThreatStore
	classifier  Classifier
	translator  Translator
	urlAnalyzer *URLAnalyzer
	rules       *RulesEngine
	aggregator  *Aggregator
	logger      *zap.Logger

	messageDeadline     time.Duration
	collaboratorTimeout time.Duration
	lookupWorkers       int
}

// NewAnalysisService creates the pipeline service. classifier may be nil, in
// which case every report is produced in rules-only mode.
func NewAnalysisService(
	store ThreatStore,
	classifier Classifier,
	translator Translator,
	urlAnalyzer *URLAnalyzer,
	rules *RulesEngine,
	aggregator *Aggregator,
	logger *zap.Logger,
	messageDeadline time.Duration,
	collaboratorTimeout time.Duration,
	lookupWorkers int,
) *AnalysisService {
	if lookupWorkers <= 0 {
		lookupWorkers = 4
	}
	return &AnalysisService{
		store:               store,
		classifier:          classifier,
		translator:          translator,
		urlAnalyzer:         urlAnalyzer,
		rules:               rules,
		aggregator:          aggregator,
		logger:              logger,
		messageDeadline:     messageDeadline,
		collaboratorTimeout: collaboratorTimeout,
		lookupWorkers:       lookupWorkers,
	}
}

// AnalyzeMessage analyzes one parsed message and returns its Report.
//
// A MalformedMessageError aborts the analysis with no report. Collaborator
// timeouts and store unavailability degrade the report instead of failing
// it; the degradation is recorded in the report's diagnostics. On message
// deadline expiry the report carries whatever findings completed, with the
// timeout flag set.
func (s *AnalysisService) AnalyzeMessage(ctx context.Context, msg *ParsedMessage) (*Report, error) {
	if s.messageDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.messageDeadline)
		defer cancel()
	}

	diag := Diagnostics{Mode: ModeFull}
	start := time.Now()

	// Header and URL analysis have no data dependency on each other.
	var headerRes HeaderAnalysisResult
	var urlRes URLDomainAnalysisResult

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		headerRes, err = AnalyzeHeaders(msg.Headers)
		return err
	})
	g.Go(func() error {
		urlRes = s.urlAnalyzer.Analyze(msg.URLs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lookups := s.lookupIndicators(ctx, msg, urlRes, &diag)

	risk := s.rules.Evaluate(headerRes, urlRes, lookups, msg.Attachments)

	confidence := s.classify(ctx, msg, &diag)
	if confidence == nil {
		diag.Mode = ModeRulesOnly
	}
	if ctx.Err() != nil {
		diag.TimedOut = true
	}

	report := s.aggregator.BuildReport(risk, confidence, diag)

	s.logger.Info("Message analyzed",
		zap.String("report_id", report.ID),
		zap.Int("risk_score", risk.Value),
		zap.Float64("final_score", report.FinalScore),
		zap.String("verdict", string(report.Verdict)),
		zap.String("mode", report.Diagnostics.Mode),
		zap.Bool("timed_out", report.Diagnostics.TimedOut),
		zap.Duration("elapsed", time.Since(start)))

	return report, nil
}

// lookupTarget is one (type, value) pair to resolve against the threat store.
type lookupTarget struct {
	typ   IndicatorType
	value string
}

// lookupIndicators resolves every URL, domain, IP and attachment hash in the
// message against the threat store, from a bounded worker pool. Repeated
// values are served from the per-run cache. Failed lookups are returned as
// skipped, never as clean.
func (s *AnalysisService) lookupIndicators(
	ctx context.Context,
	msg *ParsedMessage,
	urlRes URLDomainAnalysisResult,
	diag *Diagnostics,
) []ThreatLookup {
	targets := collectTargets(msg, urlRes)
	results := make([]ThreatLookup, len(targets))
	cache := newRunCache()

	g := new(errgroup.Group)
	g.SetLimit(s.lookupWorkers)

	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if cached, ok := cache.get(t.typ, t.value); ok {
				results[i] = cached
				return nil
			}

			lookup := ThreatLookup{Type: t.typ, Value: t.value}
			match, err := s.store.Lookup(ctx, t.typ, t.value)
			if err != nil {
				lookup.Skipped = true
				s.logger.Warn("Threat lookup skipped",
					zap.String("type", string(t.typ)),
					zap.String("value", t.value),
					zap.Error(err))
			} else {
				lookup.Match = match
			}

			cache.put(lookup)
			results[i] = lookup
			return nil
		})
	}
	g.Wait()

	for _, l := range results {
		if l.Skipped {
			diag.SkippedLookups++
		}
	}
	if diag.SkippedLookups > 0 {
		diag.Errors = append(diag.Errors, "threat store lookups skipped; matches may be missing")
	}

	return results
}

// collectTargets gathers the distinct lookup targets of a message in a
// deterministic order: URL records first (url, then domain or IP), then
// attachment hashes.
func collectTargets(msg *ParsedMessage, urlRes URLDomainAnalysisResult) []lookupTarget {
	seen := make(map[lookupTarget]struct{})
	var targets []lookupTarget
	add := func(typ IndicatorType, value string) {
		if value == "" {
			return
		}
		t := lookupTarget{typ: typ, value: value}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}

	for _, rec := range urlRes.Records {
		add(IndicatorURL, rec.URL.Raw)
		if rec.IPLiteral {
			ip := strings.Trim(hostWithoutPort(strings.ToLower(rec.URL.Host)), "[]")
			add(IndicatorIP, ip)
		} else {
			add(IndicatorDomain, rec.Domain)
		}
	}
	for _, a := range msg.Attachments {
		add(IndicatorHash, strings.ToLower(a.SHA256))
	}
	return targets
}

// classify obtains the ML confidence for the message, translating the body
// first when no English text is available. Any collaborator failure turns
// into a nil confidence; the caller switches the report to rules-only mode.
func (s *AnalysisService) classify(ctx context.Context, msg *ParsedMessage, diag *Diagnostics) *float64 {
	if s.classifier == nil {
		return nil
	}

	text := s.normalizedBody(ctx, msg, diag)

	callCtx := ctx
	if s.collaboratorTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.collaboratorTimeout)
		defer cancel()
	}

	confidence, err := s.classifier.Confidence(callCtx, msg, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCollaboratorTimeout) {
			s.logger.Warn("Classifier timed out; continuing with rules only", zap.Error(err))
			diag.Errors = append(diag.Errors, "classifier timed out")
		} else {
			s.logger.Warn("Classifier failed; continuing with rules only", zap.Error(err))
			diag.Errors = append(diag.Errors, "classifier unavailable")
		}
		return nil
	}
	if confidence < 0 || confidence > 1 {
		s.logger.Warn("Classifier returned out-of-range confidence; discarding",
			zap.Float64("confidence", confidence))
		diag.Errors = append(diag.Errors, "classifier confidence out of range")
		return nil
	}
	return &confidence
}

// normalizedBody picks the body text handed to the classifier's feature
// extraction. English bodies pass through untouched; otherwise the first
// body (by language tag order, for determinism) is machine-translated.
// Translation failure falls back to the original text: rule evaluation
// never depended on it, so the failure cannot corrupt the verdict's rule
// side.
func (s *AnalysisService) normalizedBody(ctx context.Context, msg *ParsedMessage, diag *Diagnostics) string {
	if text, ok := msg.Bodies["en"]; ok {
		return text
	}
	if len(msg.Bodies) == 0 {
		return ""
	}

	langs := make([]string, 0, len(msg.Bodies))
	for lang := range msg.Bodies {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	lang := langs[0]
	text := msg.Bodies[lang]

	if s.translator == nil {
		return text
	}

	callCtx := ctx
	if s.collaboratorTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.collaboratorTimeout)
		defer cancel()
	}

	translated, err := s.translator.Translate(callCtx, text, lang)
	if err != nil {
		s.logger.Warn("Translation failed; using original body text",
			zap.String("lang", lang), zap.Error(err))
		diag.TranslationFailed = true
		diag.Errors = append(diag.Errors, "translation failed")
		return text
	}
	return translated
}
