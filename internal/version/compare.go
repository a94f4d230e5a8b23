package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// CheckCompatibility reports whether a document declaring version declared
// can be read by code that supports version supported.
//
// Rules:
//   - "main" on either side skips the check
//   - major versions must match
//   - declared minor must not exceed supported minor, since a newer minor may
//     carry fields this build does not know
//   - patch versions are ignored
//
// Examples:
//   - supported 1.2.0, declared 1.2.5 -> OK
//   - supported 1.2.0, declared 1.0.0 -> OK
//   - supported 1.2.0, declared 1.3.0 -> ERROR (minor too new)
//   - supported 1.2.0, declared 2.0.0 -> ERROR (major differs)
func CheckCompatibility(supported, declared string) error {
	supported = strings.TrimPrefix(strings.TrimSpace(supported), "v")
	declared = strings.TrimPrefix(strings.TrimSpace(declared), "v")

	if supported == "main" || declared == "main" {
		return nil
	}

	supportedSemver, err := semver.NewVersion(supported)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid supported version '%s'", supported)
	}

	declaredSemver, err := semver.NewVersion(declared)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid declared version '%s'", declared)
	}

	if supportedSemver.Major() != declaredSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "major version mismatch: supported %d.x.x but got %d.x.x",
			supportedSemver.Major(), declaredSemver.Major())
	}

	if declaredSemver.Minor() > supportedSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "minor version too new: supported up to %d.%d.x but got %d.%d.x",
			supportedSemver.Major(), supportedSemver.Minor(),
			declaredSemver.Major(), declaredSemver.Minor())
	}

	return nil
}
