package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rapidpro/relayd/pkg/relay/auth"
)

// Fakes one signed sync call from a claimed device. Useful against a local
// relayd with in-memory storage after claiming a channel via the API.
func main() {
	if len(os.Args) != 4 {
		log.Fatal("usage: syncdevice <base-url> <channel-id> <secret>")
	}
	baseURL, channelID, secret := os.Args[1], os.Args[2], os.Args[3]

	body := []byte(`{"cmds":[` +
		`{"cmd":"fcm","fcm_id":"spike-fcm-id","uuid":"spike-device"},` +
		`{"cmd":"status","p_src":"BAT","p_sts":"CHA","p_lvl":80,"net":"WIFI","pending":[],"retry":[],"app_version":"spike","org_id":1}]}`)

	ts := time.Now().Unix()
	sig := auth.SignatureFor(secret, ts, body)

	u := fmt.Sprintf("%s/sync/%s?ts=%d&signature=%s", baseURL, channelID, ts, url.QueryEscape(sig))
	resp, err := http.Post(u, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("status: %d, body: %s\n", resp.StatusCode, string(out))
}
