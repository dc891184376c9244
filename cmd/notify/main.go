package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/containrrr/shoutrrr"
)

// Command-line alert sender for monitoring hooks: posts a message through a
// shoutrrr URL so alerting works without the API being up.
func main() {
	url := flag.String("url", os.Getenv("IPSENTRY_NOTIFY_URL"), "shoutrrr destination URL (falls back to IPSENTRY_NOTIFY_URL)")
	subject := flag.String("subject", "", "optional subject line prepended to the message")
	flag.Parse()

	if *url == "" {
		log.Fatal("destination URL required: pass -url or set IPSENTRY_NOTIFY_URL")
	}
	if flag.NArg() == 0 {
		log.Fatal("usage: notify [-url URL] [-subject SUBJECT] message...")
	}

	message := strings.Join(flag.Args(), " ")
	if *subject != "" {
		message = fmt.Sprintf("%s\n\n%s", *subject, message)
	}

	if err := shoutrrr.Send(*url, message); err != nil {
		log.Fatalf("send notification: %v", err)
	}
	fmt.Println("notification sent")
}
