// Command birdsync archives recordings from a Birdsy camera account.
//
// Overview
//
// Each run signs in, performs one action and exits:
//
//	birdsync --action sync
//	birdsync --action list --date 2024-01-01
//	birdsync --action delete --date 2024-01-01
//	birdsync --action download --date 2024-01-01
//
// sync walks every recorded day, in reverse of the order the service lists
// them, and downloads each favourite whose <id>.csv is not yet in the
// download directory. list prints the recordings of one day; delete removes
// that day's non-favourites from the service; download saves that day's
// favourites.
//
// Every downloaded recording is stored as three files:
//
//   - <id>.csv: a header line and one metadata row
//   - <id>.jpg: the thumbnail
//   - <id>.mp4: the video
//
// Delete <id>.csv to have the next sync download the recording again.
//
// Configuration
//
// Settings are read from, in increasing priority:
//
//  1. Default values
//  2. Config file (--config, birdsync.json, or ~/.config/birdsync/birdsync.json)
//  3. Environment variables
//
// Environment variables:
//
//   - BIRDSY_EMAIL, BIRDSY_PASSWORD: account credentials (required)
//   - BIRDSYNC_DOWNLOAD_PATH: download directory (required)
//   - BIRDSYNC_CREATE_DOWNLOAD_DIR: create the directory if missing (true/false)
//   - BIRDSYNC_BASE_URL: service root
//   - BIRDSYNC_REQUEST_TIMEOUT: per API call timeout, e.g. 30s
//   - BIRDSYNC_DOWNLOAD_TIMEOUT: per file timeout, 0 for none
//   - BIRDSYNC_RPS: requests per second to the API host, 0 for unlimited
//   - BIRDSYNC_ARTIFACT_RPS: requests per second per thumbnail or video host
//   - BIRDSYNC_MAX_PAGE_ATTEMPTS: attempts per listing page; 4xx answers other than 408
//     and 429 fail the page at once
//   - BIRDSYNC_FAIL_FAST: stop on the first listing error (true/false)
//   - BIRDSYNC_LOG_LEVEL, BIRDSYNC_LOG_FORMAT: logging (console or json)
//
// Output
//
// The run transcript goes to stdout; logs go to stderr. The exit status is 1
// when configuration, locking, sign-in or a fail-fast listing error stops the
// run, and 0 otherwise, including runs where single files failed.
package main
