// SPDX-License-Identifier: MIT

// wallctl sends broadcast playback commands to every device on the network
// and transfers replacement media files to a single device.
//
// Synchronized start across devices:
//
//	wallctl load   # all devices preload and pause
//	wallctl go     # all devices start together
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/net/ipv4"

	"github.com/ManuGH/videowall/internal/config"
	"github.com/ManuGH/videowall/internal/transfer"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  wallctl [flags] play|stop|load|go
  wallctl [flags] send <file> <host>

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	group := flag.String("group", config.DefaultMulticastGroup, "multicast group address")
	port := flag.Int("port", config.DefaultMulticastPort, "multicast command port")
	transferPort := flag.Int("transfer-port", config.DefaultTransferPort, "file transfer port")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch strings.ToLower(args[0]) {
	case "play", "stop", "load", "go":
		if err := sendCommand(args[0], *group, *port); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "send":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: wallctl send <file> <host>")
			os.Exit(2)
		}
		if err := sendFile(args[1], args[2], *transferPort, *quiet); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

// sendCommand fires one datagram at the multicast group. The protocol is
// fire-and-forget, no acknowledgment is expected.
func sendCommand(cmd, group string, port int) error {
	ip := net.ParseIP(group)
	if ip == nil {
		return fmt.Errorf("invalid multicast group %q", group)
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("open socket: %w", err)
	}
	defer conn.Close()

	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(2); err != nil {
		return fmt.Errorf("set multicast TTL: %w", err)
	}

	payload := strings.ToUpper(cmd)
	if _, err := conn.WriteTo([]byte(payload), &net.UDPAddr{IP: ip, Port: port}); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	fmt.Printf("sent %q to %s:%d\n", payload, group, port)
	return nil
}

func sendFile(path, host string, port int, quiet bool) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	progress := func(sent, total int64) {
		if quiet || total == 0 {
			return
		}
		fmt.Printf("\rprogress: %d%%", sent*100/total)
	}

	err := transfer.Send(context.Background(), addr, path, progress)
	if !quiet {
		fmt.Println()
	}
	switch {
	case err == nil:
		fmt.Println("file transferred successfully")
		return nil
	case errors.Is(err, transfer.ErrBusy):
		return errors.New("device is busy (playback in progress)")
	default:
		return err
	}
}
