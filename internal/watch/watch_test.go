package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenqian/autobill/internal/queue"
)

func TestWatch(t *testing.T) {
	// Disable logging during tests
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Watch Suite")
}

// fakePublisher records published jobs
type fakePublisher struct {
	mu   sync.Mutex
	jobs []*queue.ScanJob
}

func (f *fakePublisher) Publish(ctx context.Context, job *queue.ScanJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakePublisher) published() []*queue.ScanJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*queue.ScanJob(nil), f.jobs...)
}

var _ = Describe("IsScreenshot", func() {
	It("should accept screenshot-style filenames with supported extensions", func() {
		Expect(IsScreenshot("/pictures/Screenshot_2024-03-08.png")).To(BeTrue())
		Expect(IsScreenshot("/pictures/Screen Shot 2024-03-08.jpg")).To(BeTrue())
		Expect(IsScreenshot("/pictures/截屏2024-03-08.png")).To(BeTrue())
		Expect(IsScreenshot("/pictures/微信截图_20240308.jpeg")).To(BeTrue())
		Expect(IsScreenshot("/pictures/screenshot.heic")).To(BeTrue())
		Expect(IsScreenshot("/pictures/screenshot.pdf")).To(BeTrue())
	})

	It("should reject non-screenshot filenames", func() {
		Expect(IsScreenshot("/pictures/IMG_1234.jpg")).To(BeFalse())
		Expect(IsScreenshot("/pictures/vacation.png")).To(BeFalse())
	})

	It("should reject unsupported extensions", func() {
		Expect(IsScreenshot("/pictures/screenshot.txt")).To(BeFalse())
		Expect(IsScreenshot("/pictures/screenshot.mp4")).To(BeFalse())
		Expect(IsScreenshot("/pictures/screenshot")).To(BeFalse())
	})
})

var _ = Describe("Watcher", func() {
	var (
		dir    string
		pub    *fakePublisher
		cancel context.CancelFunc
		done   chan struct{}
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		pub = &fakePublisher{}

		watcher, err := New(dir, pub)
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go func() {
			defer close(done)
			_ = watcher.Run(ctx)
		}()

		// Give the watcher a moment to register the directory
		time.Sleep(100 * time.Millisecond)
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 3*time.Second).Should(BeClosed())
	})

	It("should publish a job for a new screenshot file", func() {
		path := filepath.Join(dir, "Screenshot_2024-03-08.png")
		Expect(os.WriteFile(path, []byte("fake image"), 0o644)).To(Succeed())

		Eventually(func() int {
			return len(pub.published())
		}, 3*time.Second).Should(Equal(1))

		Expect(pub.published()[0].Path).To(Equal(path))
	})

	It("should ignore files that are not screenshots", func() {
		path := filepath.Join(dir, "notes.txt")
		Expect(os.WriteFile(path, []byte("not an image"), 0o644)).To(Succeed())

		Consistently(func() int {
			return len(pub.published())
		}, 500*time.Millisecond).Should(BeZero())
	})

	It("should de-duplicate the event burst from a single file write", func() {
		path := filepath.Join(dir, "Screenshot_2024-03-08.png")
		Expect(os.WriteFile(path, []byte("fake image"), 0o644)).To(Succeed())
		Expect(os.WriteFile(path, []byte("fake image rewritten"), 0o644)).To(Succeed())

		Eventually(func() int {
			return len(pub.published())
		}, 3*time.Second).Should(Equal(1))

		Consistently(func() int {
			return len(pub.published())
		}, 500*time.Millisecond).Should(Equal(1))
	})

	When("the directory is empty", func() {
		It("requires a directory", func() {
			_, err := New("", pub)
			Expect(err).To(HaveOccurred())
		})
	})
})
