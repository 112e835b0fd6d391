/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/timewire/ntp-nts/nts/keymaterial"
	"github.com/timewire/ntp-nts/nts/metrics"
	"github.com/timewire/ntp-nts/protocol/ntp"
)

var (
	decodeFileFlag       string
	decodeHexFlag        string
	decodeKeyFlag        string
	decodeKeyFileFlag    string
	decodeKeyIDFlag      string
	decodeReceivedAtFlag string
	decodeMetricsAddr    string
)

func init() {
	RootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVarP(&decodeFileFlag, "file", "f", "", "path to a raw packet capture (defaults to stdin)")
	decodeCmd.Flags().StringVarP(&decodeHexFlag, "hex", "x", "", "hex-encoded packet, in place of --file/stdin")
	decodeCmd.Flags().StringVarP(&decodeKeyFlag, "key", "k", "", "hex-encoded 32-octet AES-SIV key that opens the NTS encrypted field; if omitted, an all-zero key is used")
	decodeCmd.Flags().StringVar(&decodeKeyFileFlag, "keyfile", "", "INI key-material file, in place of --key")
	decodeCmd.Flags().StringVar(&decodeKeyIDFlag, "keyid", "", "key id to look up in --keyfile")
	decodeCmd.Flags().StringVar(&decodeReceivedAtFlag, "received-at", "", "RFC3339 local arrival time for delay/offset, for a server response (defaults to now)")
	decodeCmd.Flags().StringVar(&decodeMetricsAddr, "metrics-addr", "", "if set, serve this decode's Prometheus counters on this address until interrupted")
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode an NTP or NTS packet and print its fields",
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()

		exporter := metrics.NewExporter()

		data, err := readPacketBytes()
		if err != nil {
			log.Fatal(err)
		}

		key, err := resolveKey()
		if err != nil {
			log.Fatal(err)
		}

		var packet ntp.Packet
		if key == nil {
			packet, err = ntp.ParseInsecure(data)
		} else {
			var aead cipher.AEAD
			aead, err = ntp.NewAeadCipher(key)
			if err == nil {
				packet, err = ntp.Parse(data, aead)
			}
		}
		exporter.ObserveParseError(err)
		if err != nil {
			log.Fatalf("decoding packet: %v", err)
		}
		if len(packet.Extensions.Encrypted) > 0 {
			exporter.ObserveDecryptSuccess()
		}

		printHeader(packet)
		printExtensionFields(packet)
		printMac(packet)

		if packet.IsKiss() {
			exporter.ObserveKissResponse(string(packet.Header.ReferenceId[:]))
			printKiss(packet)
		} else if packet.Header.Mode == ntp.ModeServer {
			if err := printTiming(packet); err != nil {
				log.Errorf("computing delay/offset: %v", err)
			}
		}

		if decodeMetricsAddr != "" {
			log.Infof("serving /metrics on %s until interrupted", decodeMetricsAddr)
			if err := exporter.Listen(decodeMetricsAddr); err != nil {
				log.Fatal(err)
			}
		}
	},
}

// resolveKey returns the AEAD key to decode with, preferring an explicit
// --key over a --keyfile/--keyid lookup, or nil if neither was given.
func resolveKey() ([]byte, error) {
	if decodeKeyFlag != "" {
		return hex.DecodeString(decodeKeyFlag)
	}
	if decodeKeyFileFlag == "" {
		return nil, nil
	}
	store, err := keymaterial.Load(decodeKeyFileFlag)
	if err != nil {
		return nil, err
	}
	key, ok := store.Get(decodeKeyIDFlag)
	if !ok {
		return nil, fmt.Errorf("key id %q not found in %s", decodeKeyIDFlag, decodeKeyFileFlag)
	}
	return key, nil
}

func readPacketBytes() ([]byte, error) {
	if decodeHexFlag != "" {
		return hex.DecodeString(decodeHexFlag)
	}
	if decodeFileFlag != "" {
		return os.ReadFile(decodeFileFlag)
	}
	return io.ReadAll(os.Stdin)
}

func printHeader(p ntp.Packet) {
	h := p.Header
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"version", color.BlueString("%d", h.Version)})
	table.Append([]string{"leap indicator", fmt.Sprintf("%d", h.Leap)})
	table.Append([]string{"mode", fmt.Sprintf("%d", h.Mode)})
	table.Append([]string{"stratum", strconv.Itoa(int(h.Stratum))})
	table.Append([]string{"poll", strconv.Itoa(int(h.Poll))})
	table.Append([]string{"precision", strconv.Itoa(int(h.Precision))})
	table.Append([]string{"root delay", fmt.Sprintf("0x%08x", uint32(h.RootDelay))})
	table.Append([]string{"root dispersion", fmt.Sprintf("0x%08x", uint32(h.RootDispersion))})
	table.Append([]string{"reference id", fmt.Sprintf("% x", h.ReferenceId)})
	table.Append([]string{"reference timestamp", formatTimestamp(h.ReferenceTimestamp)})
	table.Append([]string{"origin timestamp", formatTimestamp(h.OriginTimestamp)})
	table.Append([]string{"receive timestamp", formatTimestamp(h.ReceiveTimestamp)})
	table.Append([]string{"transmit timestamp", formatTimestamp(h.TransmitTimestamp)})
	table.Render()
}

func formatTimestamp(ts ntp.NtpTimestamp) string {
	return fmt.Sprintf("0x%016x (%s)", uint64(ts), ts.WallClock().UTC().Format(time.RFC3339Nano))
}

func printKiss(p ntp.Packet) {
	fmt.Printf("%s %s\n", color.YellowString("[KISS]"), string(p.Header.ReferenceId[:]))
}

// printTiming reports the round-trip delay and clock offset this response
// implies, using origin_timestamp (T1), receive_timestamp (T2), and
// transmit_timestamp (T3) from p against the local arrival time (T4) given
// by --received-at, or now if unset.
func printTiming(p ntp.Packet) error {
	receivedAt := time.Now()
	if decodeReceivedAtFlag != "" {
		parsed, err := time.Parse(time.RFC3339Nano, decodeReceivedAtFlag)
		if err != nil {
			return fmt.Errorf("parsing --received-at: %w", err)
		}
		receivedAt = parsed
	}

	t1 := p.Header.OriginTimestamp.WallClock()
	t2 := p.Header.ReceiveTimestamp.WallClock()
	t3 := p.Header.TransmitTimestamp.WallClock()

	delay := ntp.AvgNetworkDelay(t1, t2, t3, receivedAt)
	realTime := ntp.CurrentRealTime(t3, delay)
	offset := ntp.CalculateOffset(realTime, receivedAt)

	fmt.Printf("round-trip delay: %s\n", time.Duration(delay))
	fmt.Printf("clock offset: %s\n", time.Duration(offset))
	return nil
}

func printExtensionFields(p ntp.Packet) {
	rows := [][]string{}
	appendFields := func(trust string, fields []ntp.ExtensionField) {
		for _, f := range fields {
			rows = append(rows, []string{trust, fmt.Sprintf("%T", f)})
		}
	}
	appendFields(color.GreenString("authenticated"), p.Extensions.Authenticated)
	appendFields(color.GreenString("encrypted"), p.Extensions.Encrypted)
	appendFields(color.YellowString("untrusted"), p.Extensions.Untrusted)

	if len(rows) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"trust", "type"})
	table.AppendBulk(rows)
	table.Render()
}

func printMac(p ntp.Packet) {
	if p.Mac == nil {
		return
	}
	fmt.Printf("mac: key id %d, digest %s\n", p.Mac.KeyID, hex.EncodeToString(p.Mac.Value))
}
