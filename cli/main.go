// Command botfarmctl is the operator console for a running engine.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	client := NewApiClient()
	var err error
	switch flag.Arg(0) {
	case "status":
		err = showStatus(client)
	case "agents":
		err = showAgents(client, flag.Arg(1))
	case "create":
		err = createAgent(client, flag.Args()[1:])
	case "decisions":
		err = showDecisions(client)
	case "health":
		err = showHealth(client)
	case "watch":
		err = watchDecisions(client)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: botfarmctl <command> [args]

Commands:
  status                        engine summary
  agents [status]               list agents, optionally filtered by status
  create -kind K [-role R] [-communities a,b] [-reason text]
                                create an agent (needs BOTFARM_ADMIN_TOKEN)
  decisions                     recent decision log
  health                        ecosystem health
  watch                         stream decisions live

Environment:
  BOTFARM_API_URL       engine address (default http://localhost:8080)
  BOTFARM_ADMIN_TOKEN   token for mutating commands
`)
}

func showStatus(client *ApiClient) error {
	status, err := client.GetStatus()
	if err != nil {
		return err
	}
	fmt.Printf("Uptime:  %s\n", status.Uptime)
	fmt.Printf("Agents:  %d total, %d active\n", status.AgentsTotal, status.AgentsActive)
	for state, n := range status.AgentsByState {
		fmt.Printf("  %-12s %d\n", state, n)
	}
	fmt.Printf("Health:  %.2f\n", status.HealthScore)
	return nil
}

func showAgents(client *ApiClient, status string) error {
	agents, err := client.GetAgents(status)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No agents")
		return nil
	}
	fmt.Printf("%-22s %-10s %-16s %-20s %s\n", "NAME", "STATUS", "ROLE", "PERSONALITY", "COMMUNITIES")
	for _, a := range agents {
		fmt.Printf("%-22s %-10s %-16s %-20s %s\n",
			a.Name, a.Status, a.Role, a.Personality, strings.Join(a.Communities, ","))
	}
	return nil
}

func createAgent(client *ApiClient, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	kind := fs.String("kind", "", "personality template kind")
	role := fs.String("role", "", "agent role")
	communities := fs.String("communities", "", "comma-separated communities")
	reason := fs.String("reason", "operator request", "creation reason")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *kind == "" && *role == "" {
		return fmt.Errorf("one of -kind or -role is required")
	}

	req := CreateAgentRequest{
		PersonalityKind: *kind,
		Role:            *role,
		Reason:          *reason,
	}
	if *communities != "" {
		req.Communities = strings.Split(*communities, ",")
	}

	agent, err := client.CreateAgent(req)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (%s, %s)\n", agent.Name, agent.ID, agent.Status)
	return nil
}

func showDecisions(client *ApiClient) error {
	decisions, err := client.GetDecisions(50)
	if err != nil {
		return err
	}
	for _, d := range decisions {
		fmt.Printf("%s  %-12s agent=%s  %s\n",
			d.Timestamp.Format("15:04:05"), d.Kind, d.AgentID, d.Reason)
	}
	return nil
}

func showHealth(client *ApiClient) error {
	health, err := client.GetEcosystemHealth()
	if err != nil {
		return err
	}
	fmt.Printf("Agents:       %d total, %d active\n", health.TotalAgents, health.ActiveAgents)
	fmt.Printf("Today:        %d created, %d retired\n", health.CreationsToday, health.RetirementsToday)
	fmt.Printf("Communities:  %d covered\n", health.CommunitiesCovered)
	fmt.Printf("Health:       %.2f\n", health.OverallHealthScore)
	return nil
}

// watchDecisions tails the live decision feed until interrupted.
func watchDecisions(client *ApiClient) error {
	wsURL := strings.Replace(client.BaseURL, "http", "ws", 1) + "/ws/decisions"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to decision feed: %w", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		conn.Close()
	}()

	fmt.Println("Watching decisions (Ctrl-C to stop)")
	for {
		var d Decision
		if err := conn.ReadJSON(&d); err != nil {
			return nil
		}
		fmt.Printf("%s  %-12s agent=%s  %s\n",
			d.Timestamp.Format("15:04:05"), d.Kind, d.AgentID, d.Reason)
	}
}
