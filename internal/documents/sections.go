package documents

import (
	"regexp"
	"sort"
	"strings"
)

// Heading patterns are matched case-insensitively against the whole document.
// Spanish terms come first since that is the corpus the tool was built for;
// English equivalents are accepted as well. A section whose heading never
// appears stays empty, which is a valid outcome, not an error.
var resumeSectionPatterns = map[string]*regexp.Regexp{
	"profile":    regexp.MustCompile(`(?i)datos\s+personales|informaci[oó]n\s+personal|perfil|sobre\s+m[ií]|acerca\s+de\s+m[ií]|resumen|profile|summary|about\s+me`),
	"experience": regexp.MustCompile(`(?i)experiencia(\s+(laboral|profesional))?|experience|work\s+history|employment`),
	"education":  regexp.MustCompile(`(?i)educaci[oó]n|formaci[oó]n|estudios|certificaciones|cursos|education|studies|academic`),
	"skills":     regexp.MustCompile(`(?i)habilidades|competencias|capacidades|aptitudes|conocimientos|skills|stack|tecnolog[ií]as`),
}

var jobSectionPatterns = map[string]*regexp.Regexp{
	"description": regexp.MustCompile(`(?i)sobre\s+el\s+rol|descripci[oó]n(\s+del\s+puesto)?|acerca\s+de\s+la\s+posici[oó]n|oportunidad\s+laboral|sobre\s+nosotros|buscamos|b[uú]squeda|about\s+the\s+role|description|overview`),
	"responsibilities": regexp.MustCompile(`(?i)responsabilidades(\s+clave)?|funciones|tareas|actividades|lo\s+que\s+har[aá]s|objetivos?|responsibilities|duties|what\s+you.ll\s+do`),
	"education":        regexp.MustCompile(`(?i)formaci[oó]n|acad[eé]mic[oa]s?|educaci[oó]n|estudios|certificaci[oó]n(es)?|experiencia\s+requerida|education|qualifications`),
	"skills":           regexp.MustCompile(`(?i)habilidades|competencias(\s+clave)?|conocimientos|skills|tecnolog[ií]as|herramientas|lenguajes|sistemas|stack`),
}

// splitSections locates the first occurrence of each section heading and
// slices the document between consecutive headings, ordered by position.
// The returned map contains only the sections whose heading was found.
func splitSections(text string, patterns map[string]*regexp.Regexp) map[string]string {
	type headingAt struct {
		name string
		pos  int
	}

	found := make([]headingAt, 0, len(patterns))
	for name, pattern := range patterns {
		if loc := pattern.FindStringIndex(text); loc != nil {
			found = append(found, headingAt{name: name, pos: loc[0]})
		}
	}

	if len(found) == 0 {
		return map[string]string{}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	sections := make(map[string]string, len(found))
	for i, h := range found {
		end := len(text)
		if i+1 < len(found) {
			end = found[i+1].pos
		}
		sections[h.name] = strings.TrimSpace(text[h.pos:end])
	}

	return sections
}

var (
	nonTextRe    = regexp.MustCompile(`[^\p{L}\p{N}\s,]`)
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	yearRe       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// normalizeText lowercases the input, strips punctuation except commas and
// collapses horizontal whitespace. Line breaks are preserved so later passes
// can still reason per line.
func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = nonTextRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// dropHeadingLine removes the heading itself from a section slice, keeping
// only the content below it.
func dropHeadingLine(section string) string {
	lines := strings.SplitN(section, "\n", 2)
	if len(lines) < 2 {
		return section
	}
	return strings.TrimSpace(lines[1])
}

// limitWords truncates the text to at most n words.
func limitWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}

const freeTextWordLimit = 200

// extractFreeText normalizes a narrative section (profile, role description)
// into a single capped paragraph.
func extractFreeText(section string) string {
	normalized := normalizeText(section)
	normalized = strings.ReplaceAll(normalized, "\n", " ")
	return limitWords(normalized, freeTextWordLimit)
}

var experienceKeywords = []string{
	"director", "gerente", "jefe", "coordinador", "supervisor", "analista",
	"desarrollador", "ingeniero", "técnico", "asistente", "consultor",
	"encargado", "responsable", "developer", "engineer", "manager", "lead",
	"architect", "consultant", "analyst",
}

var educationKeywords = []string{
	"licenciatura", "licenciado", "ingeniero", "ingeniería", "técnico",
	"máster", "master", "doctorado", "phd", "grado", "bachiller",
	"maestría", "diplomado", "curso", "certificación", "certificado",
	"formación", "especialización", "postgrado", "degree", "bachelor",
	"university", "universidad", "bootcamp",
}

// extractKeywordLines keeps the lines of a section that mention one of the
// provided keywords or contain a year, which usually marks an employment or
// study period. When nothing matches, the first five non-empty lines are
// used instead so sparse documents still produce content.
func extractKeywordLines(section string, keywords []string) string {
	normalized := normalizeText(section)

	var matched, all []string
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		all = append(all, line)
		if containsAny(line, keywords) || yearRe.MatchString(line) {
			matched = append(matched, line)
		}
	}

	if len(matched) == 0 {
		if len(all) > 5 {
			all = all[:5]
		}
		matched = all
	}

	return strings.Join(matched, ", ")
}

var knownTechnologies = []string{
	"java", "python", "c++", "javascript", "typescript", "go", "html", "css",
	"sql", "php", "ruby", "excel", "linux", "docker", "kubernetes", "aws",
	"azure", "gcp", "sap", "jira", "git", "react", "angular", "vue",
	"node.js", "django", "flask", "spring", "rest", "api", "grpc",
	"mongodb", "mysql", "postgresql", "oracle", "redis", "kafka", "spark",
	"tableau", "power bi", "etl", "terraform", "jenkins", "devops",
	"machine learning", "scrum",
}

// extractSkills pulls individual skills out of a section: bulleted items
// first, then lines mentioning a known technology, then short lines that
// plausibly name a single skill. Bullets are detected on the raw lines
// before normalization strips the markers.
func extractSkills(section string) string {
	var skills []string
	for _, raw := range strings.Split(section, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		bulleted := strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "•") || strings.HasPrefix(raw, "*")
		line := normalizeText(raw)
		if line == "" {
			continue
		}
		switch {
		case bulleted:
			skills = append(skills, line)
		case containsAny(line, knownTechnologies):
			skills = append(skills, line)
		case len(strings.Fields(line)) <= 5:
			skills = append(skills, line)
		}
	}

	// Last resort: surface the known technologies mentioned anywhere.
	if len(skills) == 0 {
		normalized := normalizeText(section)
		for _, tech := range knownTechnologies {
			if strings.Contains(normalized, tech) {
				skills = append(skills, tech)
			}
		}
	}

	return strings.Join(dedupe(skills), ", ")
}

var responsibilityVerbRe = regexp.MustCompile(`^(desarrollar|diseñar|implementar|crear|gestionar|administrar|coordinar|mantener|analizar|develop|design|implement|build|manage|maintain|analyze|lead|own)\b`)

// extractResponsibilities splits a responsibilities section into items:
// bulleted lines, lines opening with an imperative verb, or plain lines when
// the section has no list structure at all.
func extractResponsibilities(section string) string {
	var items []string
	for _, raw := range strings.Split(section, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		bulleted := strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "•") || strings.HasPrefix(raw, "*")
		line := normalizeText(raw)
		if line == "" {
			continue
		}
		switch {
		case bulleted:
			items = append(items, line)
		case responsibilityVerbRe.MatchString(line):
			items = append(items, line)
		case len(items) == 0:
			items = append(items, line)
		}
	}

	if len(items) == 0 {
		return strings.ReplaceAll(normalizeText(section), "\n", " ")
	}

	return strings.Join(items, ", ")
}

func containsAny(line string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(line, keyword) {
			return true
		}
	}
	return false
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
