package extract

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadRules", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	writeRules := func(content string) string {
		path := filepath.Join(dir, "rules.json")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("should overlay file values on the defaults", func() {
		path := writeRules(`{"noise_terms": ["spam"], "min_line_length": 4}`)

		rules, err := LoadRules(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rules.NoiseTerms).To(Equal([]string{"spam"}))
		Expect(rules.MinLineLength).To(Equal(4))

		// Untouched fields keep their defaults
		Expect(rules.AmountPattern).To(Equal(DefaultRules().AmountPattern))
		Expect(rules.AnchorPatterns).To(Equal(DefaultRules().AnchorPatterns))
	})

	It("should produce a rule set the engine accepts", func() {
		path := writeRules(`{"distractor_terms": ["промо"]}`)

		rules, err := LoadRules(path)
		Expect(err).NotTo(HaveOccurred())

		_, err = New(rules)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail on a missing file", func() {
		_, err := LoadRules(filepath.Join(dir, "nope.json"))
		Expect(err).To(HaveOccurred())
	})

	It("should fail on malformed JSON", func() {
		path := writeRules(`{"noise_terms": [`)

		_, err := LoadRules(path)
		Expect(err).To(HaveOccurred())
	})
})
