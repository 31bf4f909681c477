// Command logdemo is a worked example of the bxilog lifecycle: it
// initializes the library against a configurable sink, fans out several
// goroutines that each emit a burst of records, demonstrates prefix-based
// level configuration, flushes, and finalizes. On SIGINT/SIGTERM it
// flushes and exits immediately, without calling Finalize.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sdahmani/bxibase"
)

func main() {
	sink := flag.String("sink", "-", `output sink: "-" for stdout, "+" for stderr, or a file path`)
	progname := flag.String("progname", "logdemo", "program name recorded on every line")
	workers := flag.Int("workers", 3, "number of producer goroutines")
	perWorker := flag.Int("n", 1000, "records emitted per worker")
	listLevels := flag.Bool("list-levels", false, "print the ordered severity names and exit")
	flag.Parse()

	if *listLevels {
		for _, name := range bxilog.AllLevelNames() {
			fmt.Println(name)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bxilog.Init(ctx, *progname, *sink); err != nil {
		fmt.Fprintf(os.Stderr, "logdemo: init: %v\n", err)
		os.Exit(1)
	}
	defer bxilog.Finalize()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "logdemo: signal received, flushing and exiting")
		_ = bxilog.Flush(context.Background())
		os.Exit(0)
	}()

	root := bxilog.New("logdemo")
	workerLogger := bxilog.New("logdemo.worker")
	adminLogger := bxilog.New("logdemo.admin")

	// Prefix-based bulk configuration: everything under "logdemo" defaults
	// to Output, but "logdemo.worker" is quieted to Warning.
	bxilog.ConfigureRegistered([]bxilog.ConfigItem{
		{Prefix: "", Level: bxilog.Lowest},
		{Prefix: "logdemo", Level: bxilog.Output},
		{Prefix: "logdemo.worker", Level: bxilog.Warning},
	})

	p := bxilog.NewProducer()
	defer p.Release()
	p.Out(root, "starting %d workers, %d records each", *workers, *perWorker)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			wp := bxilog.NewProducer()
			defer wp.Release()
			for j := 0; j < *perWorker; j++ {
				wp.Info(workerLogger, "worker %d record %d", id, j)
			}
			wp.Warning(workerLogger, "worker %d done", id)
		}(i)
	}
	wg.Wait()

	p.Out(adminLogger, "all workers finished")
	if err := bxilog.Flush(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "logdemo: flush: %v\n", err)
	}

	stats := bxilog.Stats()
	fmt.Fprintf(os.Stderr, "logdemo: enqueued=%d written=%d bytes=%d\n", stats.Enqueued, stats.Written, stats.BytesWritten)
}
