package linearize_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLinearize(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Linearize Suite")
}
