// Package rules holds the file-exclusion rules applied when exporting the
// source tree.
//
// The built-in defaults reproduce the upstream export pipeline: directories
// not required for a build are dropped from the source tarball, test-data
// directories are split into a separate archive, and a small allowlist of
// files (plus anything matching the keep-file pattern, like GN build files)
// survives inside excluded directories so `gn gen` keeps working.
//
// Defaults can be overridden or extended from a YAML manifest file, see
// [Load].
package rules

import (
	"regexp"
	"strings"
)

// keepFilePattern matches files preserved even inside excluded directories.
// GN and grit inputs, isolate files, and .pydeps files are all read at
// `gn gen` time regardless of whether their targets are built.
var keepFilePattern = regexp.MustCompile(`\.(gn|gni|grd|grdp|isolate|pydeps)(\.\S+)?$`)

// Set is a resolved rule set consulted by the exporter.
//
// Construct with [Default] or [Load]; the zero value excludes nothing.
type Set struct {
	// NonessentialDirs are directories whose files are dropped from the
	// source tarball (test suites, prebuilt toolchains, per-platform
	// trees not needed to build from source).
	NonessentialDirs []string

	// TestDirs are test-data directories. Their files are dropped from
	// the source tarball and archived separately in the testdata tarball.
	TestDirs []string

	// EssentialFiles are kept even when inside an excluded directory.
	EssentialFiles []string

	// EssentialGitDirs are prefixes under which .git directories are
	// preserved (some vendored toolchains need them to build).
	EssentialGitDirs []string
}

// Default returns the built-in rule set.
func Default() *Set {
	return &Set{
		NonessentialDirs: []string{
			"third_party/blink/tools",
			"third_party/blink/web_tests",
			"third_party/hunspell_dictionaries",
			"third_party/hunspell/tests",
			"third_party/jdk/current",
			"third_party/jdk/extras",
			"third_party/liblouis/src/tests/braille-specs",
			"third_party/xdg-utils/tests",
			"v8/test",
			"android_webview",
			"build/linux/debian_bullseye_amd64-sysroot",
			"build/linux/debian_bullseye_i386-sysroot",
			"buildtools/reclient",
			"chrome/android",
			"chromecast",
			"ios",
			"native_client",
			"native_client_sdk",
			"third_party/android_platform",
			"third_party/angle/third_party/VK-GL-CTS",
			"third_party/apache-linux",
			"third_party/catapult/third_party/vinn/third_party/v8",
			"third_party/closure_compiler",
			"third_party/instrumented_libs",
			"third_party/llvm",
			"third_party/llvm-build",
			"third_party/llvm-build-tools",
			"third_party/node/linux",
			"third_party/rust-src",
			"third_party/rust-toolchain",
			"third_party/webgl",
		},
		TestDirs: []string{
			"base/tracing/test/data",
			"chrome/test/data",
			"components/test/data",
			"content/test/data/accessibility",
			"content/test/data/gpu",
			"content/test/data/media",
			"courgette/testdata",
			"extensions/test/data",
			"media/test/data",
			"native_client/src/trusted/service_runtime/testdata",
			"testing/libfuzzer/fuzzers/wasm_corpus",
			"third_party/blink/perf_tests",
			"third_party/breakpad/breakpad/src/processor/testdata",
			"third_party/catapult/tracing/test_data",
			"third_party/dawn/test",
			"third_party/expat/src/testdata",
			"third_party/harfbuzz-ng/src/test",
			"third_party/llvm/llvm/test",
			"third_party/ots/src/tests/fonts",
			"third_party/rust-src/src/gcc/gcc/testsuite",
			"third_party/rust-src/src/llvm-project/clang/test",
			"third_party/rust-src/src/llvm-project/llvm/test",
			"third_party/screen-ai/linux/resources",
			"third_party/sqlite/src/test",
			"third_party/swiftshader/tests/regres",
			"third_party/test_fonts/test_fonts",
			"tools/perf/testdata",
		},
		EssentialFiles: []string{
			"chrome/test/data/webui/i18n_process_css_test.html",
			"chrome/test/data/webui/mojo/foobar.mojom",
			// Allows the orchestrator_all target to work with gn gen.
			"v8/test/torque/test-torque.tq",
		},
		EssentialGitDirs: []string{
			// The .git subdirs in the Rust checkout need to exist to
			// build rustc.
			"third_party/rust-src/",
		},
	}
}

// KeepFile reports whether the file at rel (slash-separated, relative to
// the checkout root) must be kept even inside an excluded directory.
func (s *Set) KeepFile(rel string) bool {
	if keepFilePattern.MatchString(rel) {
		return true
	}
	for _, f := range s.EssentialFiles {
		if rel == f {
			return true
		}
	}
	return false
}

// InExcludedDir reports whether rel lies inside a nonessential or
// test-data directory.
func (s *Set) InExcludedDir(rel string) bool {
	return underAny(rel, s.NonessentialDirs) || underAny(rel, s.TestDirs)
}

// EssentialGit reports whether a .git directory at rel must be preserved.
func (s *Set) EssentialGit(rel string) bool {
	for _, prefix := range s.EssentialGitDirs {
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

// underAny reports whether rel equals or lies under any of the dirs.
func underAny(rel string, dirs []string) bool {
	for _, d := range dirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}
