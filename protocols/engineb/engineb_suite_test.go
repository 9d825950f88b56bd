package engineb_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEngineBSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ENGINE-B abort scenario suite")
}
