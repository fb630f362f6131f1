// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command zsock-demo exercises the zsock socket patterns from the
// command line: a periodic publisher, a topic subscriber, an echo
// reply server, and a one-shot requester.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgelink/zsock"
	"github.com/edgelink/zsock/security/curve"
)

func main() {
	root := &cobra.Command{
		Use:           "zsock-demo",
		Short:         "demo for zsock PUB/SUB and REQ/REP sockets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(pubCmd(), subCmd(), repCmd(), reqCmd(), genKeysCmd())
	if err := root.Execute(); err != nil {
		log.Fatalf("zsock-demo: %v", err)
	}
}

func pubCmd() *cobra.Command {
	var (
		endpoint string
		topic    string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pub",
		Short: "publish a message on a topic at a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub := zsock.NewPub(context.Background())
			defer pub.Close()

			if err := pub.Listen(endpoint); err != nil {
				return err
			}
			log.Printf("publishing on %s, topic %q", endpoint, topic)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for seq := 0; ; seq++ {
				<-ticker.C
				payload := fmt.Sprintf("%s seq=%d", topic, seq)
				if err := pub.Send(zsock.NewMsg([]byte(payload))); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "tcp://127.0.0.1:5555", "endpoint to listen on")
	cmd.Flags().StringVar(&topic, "topic", "demo", "topic prefix to publish under")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "publish interval")
	return cmd
}

func subCmd() *cobra.Command {
	var (
		endpoint string
		topic    string
	)
	cmd := &cobra.Command{
		Use:   "sub",
		Short: "subscribe to a topic prefix and print messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := zsock.NewSub(context.Background())
			defer sub.Close()

			sub.Subscribe(topic)
			if err := sub.Dial(endpoint); err != nil {
				return err
			}
			log.Printf("subscribed to %q on %s", topic, endpoint)

			for {
				msg, err := sub.Recv()
				if err != nil {
					return err
				}
				fmt.Printf("%s\n", msg.Bytes())
			}
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "tcp://127.0.0.1:5555", "publisher endpoint to dial")
	cmd.Flags().StringVar(&topic, "topic", "demo", "topic prefix to subscribe to (empty for all)")
	return cmd
}

func repCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "rep",
		Short: "serve requests, echoing each payload back",
		RunE: func(cmd *cobra.Command, args []string) error {
			listener, err := zsock.ListenRep(context.Background(), endpoint)
			if err != nil {
				return err
			}
			defer listener.Close()
			log.Printf("serving on %s", endpoint)

			for {
				rep, err := listener.Accept()
				if err != nil {
					return err
				}
				go echo(rep)
			}
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "tcp://127.0.0.1:5556", "endpoint to listen on")
	return cmd
}

func echo(rep *zsock.RepSocket) {
	defer rep.Close()
	for {
		payload, err := rep.Recv()
		if err != nil {
			return
		}
		if err := rep.Send(payload); err != nil {
			return
		}
	}
}

func reqCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "req <message>",
		Short: "send one request and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := zsock.NewReq(context.Background())
			defer req.Close()

			if err := req.Dial(endpoint); err != nil {
				return err
			}
			start := time.Now()
			if err := req.Send([]byte(args[0])); err != nil {
				return err
			}
			reply, err := req.Recv()
			if err != nil {
				return err
			}
			log.Printf("reply in %v: %s", time.Since(start), reply)
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "tcp://127.0.0.1:5556", "reply endpoint to dial")
	return cmd
}

func genKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genkeys",
		Short: "generate a CURVE key pair, printed as Z85",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := curve.GenerateKeyPair()
			if err != nil {
				return err
			}
			public, err := keys.PublicKeyZ85()
			if err != nil {
				return err
			}
			secret, err := keys.SecretKeyZ85()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "public: %s\nsecret: %s\n", public, secret)
			return nil
		},
	}
}
