package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/povms/cmd/util"
	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/client"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/povms"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/ValentinKolb/povms/rpc/server"
	"github.com/ValentinKolb/povms/rpc/transport/local"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd measures message round trips between in-process contexts
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark message round trips and the stream codec",
		Long: `Starts workers answering SYST/PING and SYST/ECHO, lets a number of clients
call them concurrently and reports latency percentiles. Afterwards the
stream codec is benchmarked on a message carrying the configured payload.`,
		PreRunE: processBenchConfig,
		RunE:    run,
	}

	benchWorkers  = 2
	benchClients  = 8
	benchRequests = 1000
	benchPayload  = 256
)

func init() {
	util.SetupContextFlags(BenchCmd)

	key := "workers"
	BenchCmd.Flags().Int(key, benchWorkers, util.WrapString("Number of worker contexts"))
	key = "clients"
	BenchCmd.Flags().Int(key, benchClients, util.WrapString("Number of concurrent clients, each with its own context"))
	key = "requests"
	BenchCmd.Flags().Int(key, benchRequests, util.WrapString("Number of round trips every client performs per test"))
	key = "payload"
	BenchCmd.Flags().Int(key, benchPayload, util.WrapString("Size in bytes of the string echoed by the echo test (0 skips it)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	benchWorkers = viper.GetInt("workers")
	benchClients = viper.GetInt("clients")
	benchRequests = viper.GetInt("requests")
	benchPayload = viper.GetInt("payload")

	if benchWorkers < 1 || benchClients < 1 || benchRequests < 1 {
		return fmt.Errorf("workers, clients and requests must be positive")
	}
	if benchPayload < 0 {
		return fmt.Errorf("invalid payload size %d", benchPayload)
	}
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	config := util.GetContextConfig("bench")

	fmt.Fprintln(out, "Benchmark for povms contexts")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, config.String())
	fmt.Fprintf(out, "Workers: %d, Clients: %d, Requests: %d, Payload: %d bytes\n", benchWorkers, benchClients, benchRequests, benchPayload)
	fmt.Fprintln(out)

	b, err := newBench(config, benchWorkers, benchClients)
	if err != nil {
		return err
	}
	defer b.close()

	rows := make([]resultRow, 0, 4)

	fmt.Fprintln(out, "round trips:")
	rows = append(rows, b.runTest(out, "ping", benchRequests, func(c *client.Client, dst addr.Address, i int) error {
		_, err := c.Ping(dst, int32(i))
		return err
	}))
	if benchPayload > 0 {
		payload := store.Empty(store.TypeObject)
		_ = payload.SetString(store.MakeType("DATA"), strings.Repeat("x", benchPayload))
		rows = append(rows, b.runTest(out, "echo", benchRequests, func(c *client.Client, dst addr.Address, _ int) error {
			_, err := c.Echo(dst, payload)
			return err
		}))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "codec:")
	rows = append(rows, codecRows(out, benchPayload)...)

	if config.Metrics {
		fmt.Fprintln(out)
		b.writeMetrics(out)
	}

	if path := viper.GetString("csv"); path != "" {
		if err := writeResultsToCSV(path, rows, config); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nresults written to %s\n", path)
	}
	return nil
}

// --------------------------------------------------------------------------
// Round trips
// --------------------------------------------------------------------------

type bench struct {
	contexts []*povms.Context
	workers  []*server.Worker
	clients  []*client.Client
	cancel   context.CancelFunc
	done     sync.WaitGroup
	metrics  gometrics.Registry
}

// newBench opens all contexts on a private registry and starts the workers
func newBench(config common.ContextConfig, workers, clients int) (*bench, error) {
	registry := local.NewRegistry()
	stdctx, cancel := context.WithCancel(context.Background())
	b := &bench{cancel: cancel, metrics: gometrics.NewRegistry()}

	open := func(name string) (*povms.Context, error) {
		cfg := config
		cfg.Name = name
		c, err := povms.OpenContextIn(registry, cfg)
		if err != nil {
			return nil, err
		}
		b.contexts = append(b.contexts, c)
		return c, nil
	}

	for i := 0; i < workers; i++ {
		c, err := open(fmt.Sprintf("worker-%d", i))
		if err != nil {
			b.close()
			return nil, err
		}
		w := server.NewWorker(c)
		if err := w.Register(server.NewPingAdapter()); err != nil {
			b.close()
			return nil, err
		}
		b.workers = append(b.workers, w)
		b.done.Add(1)
		go func() {
			defer b.done.Done()
			if err := w.Serve(stdctx); err != nil {
				util.Logger.Warningf("worker %s stopped: %v", w.Address(), err)
			}
		}()
	}

	for i := 0; i < clients; i++ {
		c, err := open(fmt.Sprintf("client-%d", i))
		if err != nil {
			b.close()
			return nil, err
		}
		b.clients = append(b.clients, client.New(c))
	}
	return b, nil
}

// runTest lets every client call fn requests times against the workers in
// round robin and prints the latency distribution
func (b *bench) runTest(out io.Writer, name string, requests int, fn func(*client.Client, addr.Address, int) error) resultRow {
	timer := gometrics.GetOrRegisterTimer(name, b.metrics)
	errs := gometrics.GetOrRegisterCounter(name+".errors", b.metrics)

	start := time.Now()
	var wg sync.WaitGroup
	for i, c := range b.clients {
		wg.Add(1)
		go func(i int, c *client.Client) {
			defer wg.Done()
			for n := 0; n < requests; n++ {
				dst := b.workers[(i+n)%len(b.workers)].Address()
				began := time.Now()
				if err := fn(c, dst, n); err != nil {
					errs.Inc(1)
					util.Logger.Debugf("(%s) %v", name, err)
					continue
				}
				timer.UpdateSince(began)
			}
		}(i, c)
	}
	wg.Wait()
	elapsed := time.Since(start)

	row := latencyRow(name, errs.Count(), elapsed, timer)
	printLatency(out, row)
	return row
}

// writeMetrics prints the counters of every context
func (b *bench) writeMetrics(out io.Writer) {
	for _, c := range b.contexts {
		c.WriteMetrics(out)
	}
}

func (b *bench) close() {
	b.cancel()
	b.done.Wait()
	for _, c := range b.contexts {
		_ = c.CloseContext()
	}
}

// --------------------------------------------------------------------------
// Codec
// --------------------------------------------------------------------------

// codecRows benchmarks encoding and decoding of an envelope with payload bytes
func codecRows(out io.Writer, payload int) []resultRow {
	stream := serializer.NewStream(nil)
	msg := common.NewMessage(common.ClassSystem, common.IDEcho)
	_ = common.SetSourceAddress(msg, addr.System(1))
	_ = common.SetDestinationAddress(msg, addr.System(2))
	_ = msg.SetString(store.MakeType("DATA"), strings.Repeat("x", payload))
	_ = msg.Set(store.MakeType("VECT"), store.FloatVector(1, 2, 3))

	unit, err := stream.WriteEnvelope(int32(common.ModeNoReply), msg, nil)
	if err != nil {
		util.Logger.Errorf("encoding sample envelope: %v", err)
		return nil
	}

	encode := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := stream.WriteEnvelope(int32(common.ModeNoReply), msg, nil); err != nil {
				b.Fatal(err)
			}
		}
	})
	printResult(out, "encode", encode)

	decode := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := stream.ReadEnvelope(unit); err != nil {
				b.Fatal(err)
			}
		}
	})
	printResult(out, "decode", decode)

	return []resultRow{benchmarkRow("encode", encode), benchmarkRow("decode", decode)}
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// resultRow is one line of the CSV export. Latency fields stay zero for codec
// benchmarks.
type resultRow struct {
	Test      string
	Count     int64
	Errors    int64
	NsPerOp   float64
	OpsPerSec float64
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Max       time.Duration
}

func latencyRow(name string, errs int64, elapsed time.Duration, timer gometrics.Timer) resultRow {
	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	row := resultRow{
		Test:    name,
		Count:   timer.Count(),
		Errors:  errs,
		NsPerOp: timer.Mean(),
		P50:     time.Duration(ps[0]),
		P95:     time.Duration(ps[1]),
		P99:     time.Duration(ps[2]),
		Max:     time.Duration(timer.Max()),
	}
	if elapsed > 0 {
		row.OpsPerSec = float64(row.Count) / elapsed.Seconds()
	}
	return row
}

func benchmarkRow(name string, result testing.BenchmarkResult) resultRow {
	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	return resultRow{
		Test:      name,
		Count:     int64(result.N),
		NsPerOp:   nsPerOp,
		OpsPerSec: 1.0 / (nsPerOp / 1e9),
	}
}

func printLatency(out io.Writer, r resultRow) {
	fmt.Fprintf(out, "%-10s%d ok, %d failed\tmean %s\tp50 %s\tp95 %s\tp99 %s\tmax %s\t%.0f ops/sec\n",
		r.Test, r.Count, r.Errors, time.Duration(r.NsPerOp), r.P50, r.P95, r.P99, r.Max, r.OpsPerSec)
}

func printResult(out io.Writer, test string, result testing.BenchmarkResult) {
	if result.N == 0 {
		fmt.Fprintf(out, "%-10sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Fprintf(out, "%-10s%.0fns/op (%s/op)\t%.0f ops/sec\t%d allocs/op\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, result.AllocsPerOp())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, rows []resultRow, config common.ContextConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	return writeCSV(file, rows, config)
}

func writeCSV(w io.Writer, rows []resultRow, config common.ContextConfig) error {
	writer := csv.NewWriter(w)

	header := []string{
		"Test", "Count", "Errors", "NsPerOp", "OpsPerSec", "P50", "P95", "P99", "Max",
		"Workers", "Clients", "Payload", "QueueCapacity", "TimeoutSec",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range rows {
		record := []string{
			r.Test,
			fmt.Sprint(r.Count),
			fmt.Sprint(r.Errors),
			fmt.Sprintf("%.0f", r.NsPerOp),
			fmt.Sprintf("%.2f", r.OpsPerSec),
			r.P50.String(),
			r.P95.String(),
			r.P99.String(),
			r.Max.String(),
			fmt.Sprint(benchWorkers),
			fmt.Sprint(benchClients),
			fmt.Sprint(benchPayload),
			fmt.Sprint(config.QueueCapacity),
			fmt.Sprint(config.TimeoutSecond),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
