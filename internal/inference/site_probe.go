// internal/inference/site_probe.go
package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	httpclient "readiness-scorer/internal/common/http"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/readiness"
)

// Attributes the probe can report.
const (
	AttrHTTPS               = "https"
	AttrNoHTTPS             = "no_https"
	AttrCloudHosting        = "cloud_hosting"
	AttrAnalytics           = "analytics"
	AttrMarketingAutomation = "marketing_automation"
	AttrCRMIntegration      = "crm_integration"
	AttrChatWidget          = "chat_widget"
	AttrOnlineBooking       = "online_booking"
	AttrAPIDocumentation    = "api_documentation"
	AttrModernJSFramework   = "modern_js_framework"
	AttrLegacyJQuery        = "legacy_jquery"
	AttrLegacyCMS           = "legacy_cms"
	AttrFlashContent        = "flash_content"
	AttrTableLayout         = "table_layout"
)

// Script and link hosts that identify third-party tooling.
var hostMarkers = map[string][]string{
	AttrAnalytics:           {"googletagmanager.com", "google-analytics.com", "plausible.io", "cdn.segment.com", "static.hotjar.com", "matomo"},
	AttrMarketingAutomation: {"js.hs-scripts.com", "munchkin.marketo.net", "chimpstatic.com", "pardot.com", "activehosted.com"},
	AttrCRMIntegration:      {"js.hsforms.net", "force.com", "salesiq.zoho", "crm.zoho", "pipedrive.com", "webforms.pipedrive"},
	AttrChatWidget:          {"widget.intercom.io", "js.driftt.com", "static.zdassets.com", "embed.tawk.to", "client.crisp.chat", "cdn.livechatinc.com"},
	AttrOnlineBooking:       {"calendly.com", "acuityscheduling.com", "setmore.com", "simplybook.me", "squareup.com/appointments"},
	AttrCloudHosting:        {"cloudfront.net", "amazonaws.com", "azureedge.net", "storage.googleapis.com", "vercel.app", "netlify.app"},
}

// Response headers that reveal a managed edge or cloud platform.
var cloudHeaders = []string{"Cf-Ray", "X-Amz-Cf-Id", "X-Vercel-Id", "X-Nf-Request-Id", "X-Azure-Ref", "X-Goog-Generation"}

var legacyGenerators = []string{"wordpress 3.", "wordpress 4.", "joomla! 1.", "drupal 6", "drupal 7", "microsoft frontpage", "dreamweaver"}

// SiteProbe fetches the single page named by the subject reference and
// looks for markers of digital maturity. It never follows links.
type SiteProbe struct {
	client    *httpclient.Client
	bodyLimit int64
	log       logger.Logger
}

func NewSiteProbe(client *httpclient.Client, log logger.Logger) *SiteProbe {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SiteProbe{client: client, bodyLimit: httpclient.DefaultBodyLimit, log: log}
}

func (p *SiteProbe) Analyze(ctx context.Context, subjectReference string) (readiness.InferenceSignal, error) {
	target, err := normalizeReference(subjectReference)
	if err != nil {
		return readiness.Unavailable(err.Error()), nil
	}

	page, err := p.client.Fetch(ctx, target, p.bodyLimit)
	if err != nil {
		if ctx.Err() != nil {
			return readiness.Unavailable(ctx.Err().Error()), ctx.Err()
		}
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return readiness.Unavailable(fmt.Sprintf("site returned status %d", statusErr.StatusCode)), nil
		}
		p.log.Debug("Site fetch failed", map[string]interface{}{"url": target, "error": err.Error()})
		return readiness.Unavailable("site unreachable: " + err.Error()), nil
	}

	return Inspect(page)
}

// Inspect grades an already fetched page.
func Inspect(page *httpclient.Page) (readiness.InferenceSignal, error) {
	ct := page.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") {
		return readiness.Unavailable(fmt.Sprintf("unsupported content type %q", ct)), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return readiness.Unavailable("unparseable page: " + err.Error()), nil
	}

	found := make(map[string]bool)

	if u, err := url.Parse(page.URL); err == nil && u.Scheme == "https" {
		found[AttrHTTPS] = true
	} else {
		found[AttrNoHTTPS] = true
	}

	for _, h := range cloudHeaders {
		if page.Header.Get(h) != "" {
			found[AttrCloudHosting] = true
		}
	}
	if server := strings.ToLower(page.Header.Get("Server")); strings.Contains(server, "cloudflare") ||
		strings.Contains(server, "amazons3") || strings.Contains(server, "vercel") || strings.Contains(server, "netlify") {
		found[AttrCloudHosting] = true
	}

	var refs []string
	doc.Find("script[src], link[href], iframe[src], a[href], form[action]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "href", "action"} {
			if v, ok := s.Attr(attr); ok && v != "" {
				refs = append(refs, strings.ToLower(v))
			}
		}
	})
	inline := strings.ToLower(doc.Find("script:not([src])").Text())

	for attr, markers := range hostMarkers {
		for _, m := range markers {
			if strings.Contains(inline, m) || containsAny(refs, m) {
				found[attr] = true
				break
			}
		}
	}

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.ToLower(src)
		if strings.Contains(src, "jquery-1.") || strings.Contains(src, "jquery/1.") {
			found[AttrLegacyJQuery] = true
		}
		if strings.Contains(src, "/_next/static/") || strings.Contains(src, "/_nuxt/") {
			found[AttrModernJSFramework] = true
		}
	})
	if doc.Find("#__next, #__nuxt, [data-reactroot], [ng-version], [data-v-app]").Length() > 0 {
		found[AttrModernJSFramework] = true
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.ToLower(href)
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if strings.Contains(href, "/api") || strings.HasPrefix(href, "https://developer") ||
			strings.Contains(href, "/developers") || text == "api" || strings.Contains(text, "api docs") {
			found[AttrAPIDocumentation] = true
			return false
		}
		return true
	})

	if gen, ok := doc.Find(`meta[name="generator"]`).Attr("content"); ok {
		gen = strings.ToLower(gen)
		for _, legacy := range legacyGenerators {
			if strings.HasPrefix(gen, legacy) {
				found[AttrLegacyCMS] = true
				break
			}
		}
	}

	if doc.Find(`object[type="application/x-shockwave-flash"], embed[src$=".swf"], param[value$=".swf"]`).Length() > 0 {
		found[AttrFlashContent] = true
	}
	if doc.Find("table table").Length() > 0 || doc.Find("body > table").Length() > 0 {
		found[AttrTableLayout] = true
	}

	attrs := make([]string, 0, len(found))
	for a := range found {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	return readiness.InferenceSignal{
		Quality:            gradeQuality(len(text), len(attrs)),
		DetectedAttributes: attrs,
	}, nil
}

// gradeQuality: a near-empty page says little about the subject; a rich page
// with several markers is a strong signal.
func gradeQuality(textLen, attrCount int) readiness.Quality {
	switch {
	case textLen < 200:
		return readiness.QualityLow
	case textLen >= 1000 && attrCount >= 4:
		return readiness.QualityHigh
	default:
		return readiness.QualityMedium
	}
}

func normalizeReference(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid subject reference %q", ref)
	}
	return u.String(), nil
}

func containsAny(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(v, needle) {
			return true
		}
	}
	return false
}
