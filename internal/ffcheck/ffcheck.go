package ffcheck

import (
	"bufio"
	"bytes"
	"log"
	"os/exec"
	"strings"
)

type Tool struct {
	Name    string
	Path    string
	Version string
	// Configuration is the `configuration:` line of `-version`.
	Configuration string
	Err           error
}

// GPL reports whether the build was configured with --enable-gpl.
func (t Tool) GPL() bool {
	return strings.Contains(t.Configuration, "--enable-gpl")
}

func (t Tool) Found() bool { return t.Err == nil && t.Path != "" }

// Lookup resolves bin on PATH and reads its version banner.
func Lookup(bin string) Tool {
	t := Tool{Name: bin}
	path, err := exec.LookPath(bin)
	if err != nil {
		t.Err = err
		return t
	}
	t.Path = path
	if out, err := exec.Command(path, "-version").Output(); err == nil {
		t.Version, t.Configuration = ParseVersion(out)
	}
	return t
}

// ParseVersion pulls the first line and the configuration line out of
// `ffmpeg -version` output.
func ParseVersion(out []byte) (version, configuration string) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if version == "" && line != "" {
			version = line
		}
		if rest, ok := strings.CutPrefix(line, "configuration:"); ok {
			configuration = strings.TrimSpace(rest)
		}
	}
	return version, configuration
}

// CheckFFmpeg logs warnings for missing tools and outdated installs. It never
// fails; the split itself reports a missing binary.
func CheckFFmpeg(ffmpegBin, ffprobeBin string) {
	ff := Lookup(ffmpegBin)
	if !ff.Found() {
		log.Printf("⚠️ %s が見つかりません。インストールを推奨します: `brew install ffmpeg` / `apt install ffmpeg`", ffmpegBin)
		return
	}
	if probe := Lookup(ffprobeBin); !probe.Found() {
		log.Printf("⚠️ %s が見つかりません。進捗表示とプレイリストの長さが推定値になります", ffprobeBin)
	}

	if Outdated() {
		log.Println("ℹ️ ffmpeg のアップデートが可能です。自動更新は設定されていませんが、以下で更新できます:")
		log.Println("   brew upgrade ffmpeg")
	}
}

// Outdated asks Homebrew whether a newer ffmpeg is available. It is false
// when brew is not installed.
func Outdated() bool {
	if _, err := exec.LookPath("brew"); err != nil {
		return false
	}
	output, err := exec.Command("brew", "outdated", "ffmpeg").CombinedOutput()
	return err == nil && strings.Contains(string(output), "ffmpeg")
}
