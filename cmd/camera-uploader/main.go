// FilePath: cmd/camera-uploader/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsatony/hydrohub/internal/uploader"
	flag "github.com/spf13/pflag"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	hubURL := flag.StringP("hub", "u", "http://localhost:5000", "base URL of the hydrohub server")
	cameraID := flag.StringP("camera", "c", "", "camera id, e.g. DWC1L23")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	retries := flag.Int("retries", 2, "retries for failed uploads")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: camera-uploader --camera <id> [flags] <image>...\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *cameraID == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := uploader.New(uploader.Options{BaseURL: *hubURL, Timeout: *timeout, RetryCount: *retries})

	failed := 0
	for _, path := range flag.Args() {
		res, err := client.UploadFile(ctx, *cameraID, path)
		if err != nil {
			nuts.L.Errorf("[Uploader] %v", err)
			failed++
			continue
		}
		nuts.L.Infof("[Uploader] %s -> %s (ts %d)", path, res.ImageURL, res.Timestamp)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
