package permission

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrPermission matches every *Error via errors.Is.
var ErrPermission = errors.New("permission not granted")

type Status int

const (
	Granted Status = iota
	// Denied can be fixed by retrying, e.g. once the parent directory exists.
	Denied
	// Blocked needs the user to change the path's mode or owner by hand.
	Blocked
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type Result struct {
	Status Status
	Path   string
	Reason string
	// Missing is set by Inspect when the path does not exist yet.
	Missing bool
}

func (r Result) Granted() bool { return r.Status == Granted }

type Error struct {
	Result
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s へのアクセスが%s: %s", e.Path, statusLabel(e.Status), e.Reason)
	if e.Status == Blocked {
		msg += " (権限を手動で変更してください: chmod / chown)"
	}
	return msg
}

func (e *Error) Is(target error) bool { return target == ErrPermission }

func statusLabel(s Status) string {
	if s == Blocked {
		return "恒久的に拒否されました"
	}
	return "拒否されました"
}

// CheckRead reports whether path is an existing, readable regular file.
func CheckRead(path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Status: Denied, Path: path, Reason: "ファイルが存在しません"}
		}
		return Result{Status: Blocked, Path: path, Reason: err.Error()}
	}
	if info.IsDir() {
		return Result{Status: Denied, Path: path, Reason: "ディレクトリです"}
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{Status: Blocked, Path: path, Reason: err.Error()}
	}
	f.Close()
	return Result{Status: Granted, Path: path}
}

// CheckWrite asks for write access to dir. A missing dir is requested by
// creating it; an existing one is probed with a throwaway file.
func CheckWrite(dir string) Result {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Result{Status: Denied, Path: dir, Reason: err.Error()}
		}
		return Result{Status: Granted, Path: dir}
	case err != nil:
		return Result{Status: Blocked, Path: dir, Reason: err.Error()}
	case !info.IsDir():
		return Result{Status: Blocked, Path: dir, Reason: "ディレクトリではありません"}
	}

	f, err := os.CreateTemp(dir, ".split-video-write-test-*")
	if err != nil {
		return Result{Status: Blocked, Path: dir, Reason: err.Error()}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return Result{Status: Granted, Path: dir}
}

// CheckReadDir reports whether dir is an existing directory whose entries
// can be listed.
func CheckReadDir(dir string) Result {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return Result{Status: Denied, Path: dir, Reason: "ディレクトリがありません"}
	case err != nil:
		return Result{Status: Blocked, Path: dir, Reason: err.Error()}
	case !info.IsDir():
		return Result{Status: Blocked, Path: dir, Reason: "ディレクトリではありません"}
	}
	f, err := os.Open(dir)
	if err != nil {
		return Result{Status: Blocked, Path: dir, Reason: err.Error()}
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && err != io.EOF {
		return Result{Status: Blocked, Path: dir, Reason: err.Error()}
	}
	return Result{Status: Granted, Path: dir}
}

// Inspect is CheckWrite without side effects: it only stats dir. A missing
// dir is Denied with Missing set, since CheckWrite would create it.
func Inspect(dir string) Result {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return Result{Status: Denied, Path: dir, Reason: "ディレクトリがありません (実行時に作成されます)", Missing: true}
	case err != nil:
		return Result{Status: Blocked, Path: dir, Reason: err.Error()}
	case !info.IsDir():
		return Result{Status: Blocked, Path: dir, Reason: "ディレクトリではありません"}
	case info.Mode().Perm()&0222 == 0:
		return Result{Status: Blocked, Path: dir, Reason: "書き込み権限がありません"}
	}
	return Result{Status: Granted, Path: dir}
}

// Require returns an *Error for the first result that is not granted.
func Require(results ...Result) error {
	for _, r := range results {
		if !r.Granted() {
			return &Error{Result: r}
		}
	}
	return nil
}
