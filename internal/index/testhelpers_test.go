package index

import (
	"testing"

	"github.com/brobert1/seekr/internal/fingerprint"
	"github.com/brobert1/seekr/internal/sidecar"
)

func openSidecarForTest(t *testing.T, layout Layout) (*sidecar.Table, error) {
	t.Helper()
	return sidecar.Open(layout.SidecarPath())
}

func openFingerprintForTest(layout Layout) (*fingerprint.Store, error) {
	return fingerprint.Open(layout.FingerprintPath())
}
