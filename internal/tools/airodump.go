package tools

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// AirodumpNG wraps airodump-ng for discovery and targeted capture.
type AirodumpNG struct {
	name string
	tool *ExternalTool
}

func NewAirodumpNG(name string) *AirodumpNG {
	return &AirodumpNG{
		name: name,
		tool: &ExternalTool{Name: name, Required: true},
	}
}

func (a *AirodumpNG) Available() bool {
	return a.tool.Exists()
}

// CaptureSession holds the state of an airodump-ng capture.
type CaptureSession struct {
	proc    *Process
	prefix  string
	tempDir string
}

// StartCapture begins capturing a single BSSID on a fixed channel. Output
// files are written as <tempDir>/<name>-01.{cap,csv}.
func (a *AirodumpNG) StartCapture(ctx context.Context, iface, bssid string, channel int, tempDir, name string) (*CaptureSession, error) {
	args := []string{"--bssid", bssid}
	if channel > 0 {
		args = append(args, "--channel", strconv.Itoa(channel))
	}
	return a.start(ctx, iface, tempDir, name, args)
}

// StartScan starts a discovery capture, hopping unless channel is set.
func (a *AirodumpNG) StartScan(ctx context.Context, iface string, channel int, tempDir, name string) (*CaptureSession, error) {
	var args []string
	if channel > 0 {
		args = append(args, "--channel", strconv.Itoa(channel))
	}
	return a.start(ctx, iface, tempDir, name, args)
}

func (a *AirodumpNG) start(ctx context.Context, iface, tempDir, name string, args []string) (*CaptureSession, error) {
	prefix := filepath.Join(tempDir, name)
	CleanupArtifacts(prefix, tempDir)

	args = append(args,
		"--write", prefix,
		"--output-format", "pcap,csv",
		"--write-interval", "1",
		iface,
	)
	proc, err := StartProcess(ctx, a.name, args...)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", a.name, err)
	}
	return &CaptureSession{proc: proc, prefix: prefix, tempDir: tempDir}, nil
}

// CapFile returns the path to the .cap file.
func (cs *CaptureSession) CapFile() string {
	return cs.prefix + "-01.cap"
}

// CSVFile returns the path to the .csv file.
func (cs *CaptureSession) CSVFile() string {
	return cs.prefix + "-01.csv"
}

// Stop terminates the capture.
func (cs *CaptureSession) Stop() {
	if cs.proc != nil {
		_ = cs.proc.Stop()
	}
}

// Cleanup removes the intermediate files the capture produced.
func (cs *CaptureSession) Cleanup() {
	CleanupArtifacts(cs.prefix, cs.tempDir)
}

// Process returns the underlying process.
func (cs *CaptureSession) Process() *Process {
	return cs.proc
}

// ParseAirodumpCSV reads an airodump-ng CSV dump. Stations that are not
// associated come back with an empty TargetBSSID.
func ParseAirodumpCSV(path string) ([]*wifi.Target, []*wifi.Client, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return parseAirodumpCSV(f)
}

func parseAirodumpCSV(r io.Reader) ([]*wifi.Target, []*wifi.Client, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var targets []*wifi.Target
	var clients []*wifi.Client
	parsingClients := false

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil || len(record) == 0 {
			continue
		}

		switch first := strings.TrimSpace(record[0]); first {
		case "BSSID":
			parsingClients = false
			continue
		case "Station MAC":
			parsingClients = true
			continue
		case "":
			continue
		}

		if parsingClients {
			if c := parseClientRecord(record); c != nil {
				clients = append(clients, c)
			}
		} else if t := parseTargetRecord(record); t != nil {
			targets = append(targets, t)
		}
	}
	return targets, clients, nil
}

func parseTargetRecord(record []string) *wifi.Target {
	if len(record) < 14 {
		return nil
	}
	bssid := strings.TrimSpace(record[0])
	if !hwAddrRe.MatchString(bssid) {
		return nil
	}

	channel, err := strconv.Atoi(field(record, 3))
	if err != nil {
		channel = -1
	}
	t := wifi.NewTarget(bssid, field(record, 13), channel, field(record, 5), false)
	t.Power, _ = strconv.Atoi(field(record, 8))
	t.Beacons, _ = strconv.Atoi(field(record, 9))
	t.IVs, _ = strconv.Atoi(field(record, 10))
	return t
}

func parseClientRecord(record []string) *wifi.Client {
	if len(record) < 6 {
		return nil
	}
	mac := strings.TrimSpace(record[0])
	if !hwAddrRe.MatchString(mac) {
		return nil
	}

	bssid := field(record, 5)
	if !hwAddrRe.MatchString(bssid) {
		bssid = ""
	}
	c := wifi.NewClient(mac, bssid)
	c.Power, _ = strconv.Atoi(field(record, 3))
	c.Packets, _ = strconv.Atoi(field(record, 4))
	return c
}

func field(record []string, i int) string {
	return strings.TrimSpace(record[i])
}
