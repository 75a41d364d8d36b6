package naming

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qdl-tool/qdl/internal/catalog"
)

// minimalFolderFormat is the last-resort template used when a profile's
// template cannot be rendered; it only needs a display name.
const minimalFolderFormat = "{album}"

// Vars is the substitution set for template placeholders. Unknown
// placeholders render empty instead of failing the leaf.
type Vars map[string]string

func ReleaseVars(release catalog.Release) Vars {
	vars := Vars{
		"artist": release.Artist,
		"album":  release.DisplayTitle(),
		"label":  release.Label,
	}
	if release.Year > 0 {
		vars["year"] = strconv.Itoa(release.Year)
	}
	if release.BitDepth > 0 {
		vars["bit_depth"] = strconv.Itoa(release.BitDepth)
	}
	if release.SamplingRate > 0 {
		vars["sampling_rate"] = strconv.FormatFloat(release.SamplingRate, 'f', -1, 64)
	}
	return vars
}

func TrackVars(track catalog.Track, release catalog.Release) Vars {
	vars := ReleaseVars(release)
	vars["tracknumber"] = fmt.Sprintf("%02d", track.Number)
	title := track.Title
	if strings.TrimSpace(track.Version) != "" {
		title += " (" + track.Version + ")"
	}
	vars["tracktitle"] = title
	if track.Performer != "" {
		vars["artist"] = track.Performer
	}
	return vars
}

// Render substitutes {placeholder} occurrences from vars. Unknown
// placeholders become empty strings; a malformed template (unclosed
// brace) is a structural error and the caller falls back to the
// minimal template.
func Render(template string, vars Vars) (string, error) {
	var out strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:open])
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return "", fmt.Errorf("unclosed placeholder in template %q", template)
		}
		name := rest[open+1 : open+closing]
		if strings.ContainsAny(name, "{ \t") {
			return "", fmt.Errorf("malformed placeholder %q in template %q", name, template)
		}
		out.WriteString(vars[name])
		rest = rest[open+closing+1:]
	}
	return strings.TrimSpace(collapseSpaces(out.String())), nil
}

// RenderFolder renders a release folder name, dropping to the minimal
// display-name template on structural template errors.
func RenderFolder(profile Profile, vars Vars) string {
	rendered, err := Render(profile.FolderFormat, vars)
	if err == nil && rendered != "" {
		return SanitizeName(rendered)
	}
	minimal, err := Render(minimalFolderFormat, vars)
	if err != nil || minimal == "" {
		minimal = "Unknown Album"
	}
	return SanitizeName(minimal)
}

// RenderTrack renders a track file stem the same way.
func RenderTrack(profile Profile, vars Vars) string {
	rendered, err := Render(profile.TrackFormat, vars)
	if err == nil && rendered != "" {
		return SanitizeName(rendered)
	}
	fallback := vars["tracktitle"]
	if fallback == "" {
		fallback = "Unknown Track"
	}
	return SanitizeName(fallback)
}

// RenderTopFolder renders the collection-level folder. An empty result
// means no top folder should be created.
func RenderTopFolder(profile Profile, vars Vars) string {
	if !profile.CreateTopFolder {
		return ""
	}
	template := profile.TopFolderFormat
	if strings.TrimSpace(template) == "" {
		template = "{album}"
	}
	rendered, err := Render(template, vars)
	if err != nil || rendered == "" {
		rendered = vars["album"]
	}
	return SanitizeName(rendered)
}

func collapseSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}
