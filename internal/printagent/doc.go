// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

/*
Package printagent is the host-side print agent that feeds the thermal label
printer through the operating system spooler.

The agent runs on the operator workstation next to the USB printer and
accepts label programs from the API server over HTTP:

	GET  /health          liveness
	GET  /printer/status  discovered printer and the spooler's printer table
	POST /print           submit {program, customer_number, price, order_id}
	POST /test-print      submit the built-in test label
	GET  /jobs?limit=N    recent jobs from the journal, newest first

# Discovery

The printer is found by running the spooler listing command (lpstat -p -d by
default) and picking the first configured alias that appears in it. Alias
order matters: vendor names with underscores and spaces come before the
short forms.

# Submission

Each job is written to a spool file under the work directory and handed to
the spool commands in order (lp, then lpr by default) until one exits
successfully. The file is then moved to printed/ or errors/ as
label_<YYYYmmdd_HHMMSS>_<order_id>.zpl. Submissions are serialised because
there is one printer, and throttled with a token bucket.

The agent never retries a job itself; the API server's dispatcher owns
retries. Every job's state (received, submitting, submitted, failed) is
recorded in a bbolt journal.
*/
package printagent
