package version

import (
	"fmt"
	"strings"
	"sync"
)

// AppName is the name calicod reports in its user agent and version output.
const AppName = "calicod"

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// appBuild can be set at link time with
// '-ldflags "-X github.com/calico-network/calicod/version.appBuild=foo"'.
// It is dropped unless it only holds alphanumerics and dashes.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the semantic version of calicod, followed by the build
// metadata when there is valid metadata.
func Version() string {
	versionOnce.Do(func() {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
		if isValidBuild(appBuild) {
			version += "-" + appBuild
		}
	})
	return version
}

// String returns the line printed by --version.
func String() string {
	return fmt.Sprintf("%s version %s", AppName, Version())
}

// UserAgent returns the user agent sent in the version handshake, in the
// form /calicod:0.1.0(comment; comment)/.
func UserAgent(comments ...string) string {
	userAgent := "/" + AppName + ":" + Version()
	if len(comments) > 0 {
		userAgent += "(" + strings.Join(comments, "; ") + ")"
	}
	return userAgent + "/"
}

func isValidBuild(build string) bool {
	if build == "" {
		return false
	}
	return strings.IndexFunc(build, func(r rune) bool {
		isAlphanumeric := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		return !isAlphanumeric && r != '-'
	}) == -1
}
