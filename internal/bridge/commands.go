package bridge

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/dalnet/nebo/internal/dcc"
	"github.com/dalnet/nebo/internal/irc"
	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/routing"
	"github.com/dalnet/nebo/internal/storage"
)

// handleCommand processes a command from a verified IRC operator
func (b *Bridge) handleCommand(nick, hostmask, message string) {
	message = strings.TrimSpace(message)
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "!help":
		b.cmdHelp(nick, hostmask, message)
	case "!channels":
		b.cmdChannels(nick, hostmask, message)
	case "!links":
		b.cmdLinks(nick, hostmask, message)
	case "!uplinks":
		b.cmdUplinks(nick, hostmask, message)
	case "!logs":
		b.cmdLogs(nick, hostmask, message)
	case "!motd":
		b.cmdMotd(nick, hostmask, message)
	case "!contacts":
		b.cmdContacts(nick, hostmask, message)
	case "!version":
		b.cmdVersion(nick, hostmask, message)
	case "!login":
		b.cmdLogin(nick, hostmask, message)
	case "!logout":
		b.cmdLogout(nick, hostmask, message)
	case "!join":
		b.cmdJoin(nick, hostmask, message)
	case "!part":
		b.cmdPart(nick, hostmask, message)
	case "!send":
		b.cmdSend(nick, hostmask, message)
	case "!reload":
		b.cmdReload(nick, hostmask, message)
	case "!shutdown":
		b.cmdShutdown(nick, hostmask, message)
	}
}

func (b *Bridge) isAdmin(nick string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.admins[strings.ToLower(nick)]
}

// requireAdmin replies and audits when nick is not logged in
func (b *Bridge) requireAdmin(nick, hostmask, message, what string) bool {
	if b.isAdmin(nick) {
		return true
	}
	b.reply(nick, fmt.Sprintf("Sorry, only my admins can %s", what))
	b.logCommand(hostmask, fmt.Sprintf("%s, not logged in", message))
	return false
}

func (b *Bridge) cmdHelp(nick, hostmask, message string) {
	b.logCommand(hostmask, message)

	b.reply(nick, "Available commands:")
	b.reply(nick, "!channels - lists the relayed channels with their users and topics")
	b.reply(nick, "!links - shows the server tree, compared to the expected topology")
	b.reply(nick, "!uplinks <server> - shows the preferred hubs for a server")
	b.reply(nick, "!logs [number] - displays the last relayed lines")
	b.reply(nick, "!motd - displays the last captured server MOTD")
	b.reply(nick, "!contacts - shows which contacts are online")
	b.reply(nick, "!version - displays bot version information")

	if b.isAdmin(nick) {
		b.reply(nick, " ")
		b.reply(nick, "Admin commands:")
		b.reply(nick, "!join <#channel> / !part <#channel>")
		b.reply(nick, "!send <file> - offers a file from the data directory over DCC")
		b.reply(nick, "!contacts add <nick> / !contacts del <nick>")
		b.reply(nick, "!reload - reload the expected topology")
		b.reply(nick, "!shutdown")
		b.reply(nick, "!logout")
	}
}

func (b *Bridge) cmdChannels(nick, hostmask, message string) {
	b.logCommand(hostmask, message)

	open := 0
	for _, ch := range b.client.Channels().List() {
		if !ch.Open() {
			continue
		}
		open++
		line := fmt.Sprintf("%s (%d users)", ch.Name(), ch.Users.Len())
		if topic := ch.Topic(); topic != "" {
			line += ": " + topic
		}
		b.reply(nick, line)
	}
	if open == 0 {
		b.reply(nick, "Not in any channels")
	}
}

func (b *Bridge) cmdContacts(nick, hostmask, message string) {
	parts := strings.Fields(message)
	if len(parts) == 1 {
		b.logCommand(hostmask, message)
		users := b.contacts.Users()
		if len(users) == 0 {
			b.reply(nick, "No contacts")
			return
		}
		for _, u := range users {
			b.reply(nick, fmt.Sprintf("%s: %s", u.Nick(), u.OnlineStatus()))
		}
		return
	}

	if !b.requireAdmin(nick, hostmask, message, "change my contacts") {
		return
	}
	if len(parts) != 3 {
		b.reply(nick, "Usage: !contacts [add|del <nick>]")
		return
	}

	b.logCommand(hostmask, message)
	switch strings.ToLower(parts[1]) {
	case "add":
		if _, err := b.contacts.Add(parts[2]); err != nil {
			b.reply(nick, fmt.Sprintf("Error adding %s: %v", parts[2], err))
			return
		}
		b.reply(nick, fmt.Sprintf("Added %s to my contacts", parts[2]))
	case "del":
		if err := b.contacts.Remove(parts[2]); err != nil {
			b.reply(nick, fmt.Sprintf("Error removing %s: %v", parts[2], err))
			return
		}
		b.reply(nick, fmt.Sprintf("Removed %s from my contacts", parts[2]))
	default:
		b.reply(nick, "Usage: !contacts [add|del <nick>]")
	}
}

func (b *Bridge) cmdLinks(nick, hostmask, message string) {
	b.logCommand(hostmask, message)

	b.mu.Lock()
	b.linksTarget = nick
	b.mu.Unlock()

	if err := b.client.SendCommand("LINKS"); err != nil {
		b.reply(nick, fmt.Sprintf("Error requesting links: %v", err))
	}
}

func (b *Bridge) cmdUplinks(nick, hostmask, message string) {
	b.logCommand(hostmask, message)

	parts := strings.Fields(message)
	if len(parts) < 2 {
		b.reply(nick, "Usage: !uplinks <server>")
		return
	}

	b.mu.RLock()
	topology := b.topology
	b.mu.RUnlock()

	server := parts[1]
	hubs := topology.Uplinks(server)
	if len(hubs) == 0 {
		b.reply(nick, "No such server found")
		return
	}
	b.reply(nick, fmt.Sprintf("%s: %s", routing.ShortName(server), strings.Join(hubs, " ")))
}

func (b *Bridge) cmdLogs(nick, hostmask, message string) {
	b.logCommand(hostmask, message)

	parts := strings.Fields(message)
	count := 10
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil && n > 0 {
			count = n
		}
	}

	relay := b.RelayLog()
	b.reply(nick, fmt.Sprintf("The last \x02%d\x02 relayed lines:", count))
	for i := 0; i < count && i < len(relay); i++ {
		b.reply(nick, relay[i])
	}
}

func (b *Bridge) cmdMotd(nick, hostmask, message string) {
	b.logCommand(hostmask, message)

	b.mu.RLock()
	motd := b.motd
	b.mu.RUnlock()

	if len(motd.Lines) == 0 {
		b.reply(nick, "No MOTD captured yet")
		return
	}
	for _, line := range motd.Lines {
		b.reply(nick, line)
	}
	b.reply(nick, fmt.Sprintf("MOTD from %s on %s", motd.Server, motd.Captured.Format(timestampFormat)))
}

func (b *Bridge) cmdVersion(nick, hostmask, message string) {
	b.logCommand(hostmask, message)

	b.reply(nick, fmt.Sprintf("nebo version %s", irc.Version))
	b.reply(nick, fmt.Sprintf("Built: %s", irc.BuildDate))
	b.reply(nick, fmt.Sprintf("Commit: %s", irc.GitCommit))
}

func (b *Bridge) cmdLogin(nick, hostmask, message string) {
	parts := strings.Fields(message)
	if len(parts) < 2 {
		b.reply(nick, "Usage: !login <password>")
		return
	}

	if b.cfg.AdminPass != "" && parts[1] == b.cfg.AdminPass {
		b.mu.Lock()
		b.admins[strings.ToLower(nick)] = true
		b.mu.Unlock()

		b.reply(nick, "Password accepted, you are now an admin. Type !help for a list of admin-only commands")
		b.logCommand(hostmask, "successful login")
	} else {
		b.reply(nick, "Password incorrect")
		b.logCommand(hostmask, "INCORRECT LOGIN ATTEMPT")
	}
}

func (b *Bridge) cmdLogout(nick, hostmask, message string) {
	key := strings.ToLower(nick)
	b.mu.Lock()
	isAdmin := b.admins[key]
	delete(b.admins, key)
	b.mu.Unlock()

	if isAdmin {
		b.reply(nick, "You have been logged out")
		b.logCommand(hostmask, "logged out")
	} else {
		b.reply(nick, "You're not logged in!")
		b.logCommand(hostmask, "tried to log out, but wasn't logged in")
	}
}

func (b *Bridge) cmdJoin(nick, hostmask, message string) {
	if !b.requireAdmin(nick, hostmask, message, "make me join channels") {
		return
	}
	parts := strings.Fields(message)
	if len(parts) < 2 {
		b.reply(nick, "Usage: !join <#channel>")
		return
	}

	b.logCommand(hostmask, message)
	if err := b.client.SendJoin(parts[1:]...); err != nil {
		b.reply(nick, fmt.Sprintf("Error joining: %v", err))
	}
}

func (b *Bridge) cmdPart(nick, hostmask, message string) {
	if !b.requireAdmin(nick, hostmask, message, "make me leave channels") {
		return
	}
	parts := strings.Fields(message)
	if len(parts) < 2 {
		b.reply(nick, "Usage: !part <#channel>")
		return
	}

	b.logCommand(hostmask, message)
	if err := b.client.SendPart(parts[1:]...); err != nil {
		b.reply(nick, fmt.Sprintf("Error parting: %v", err))
	}
}

func (b *Bridge) cmdReload(nick, hostmask, message string) {
	if !b.requireAdmin(nick, hostmask, message, "issue that command") {
		return
	}

	topology, err := routing.LoadTopology(b.cfg.DataDir)
	if err != nil {
		b.reply(nick, fmt.Sprintf("Error loading topology: %v", err))
		return
	}
	b.mu.Lock()
	b.topology = topology
	b.mu.Unlock()

	b.reply(nick, fmt.Sprintf("Reloaded topology with %d servers.", len(topology.Servers)))
	b.logCommand(hostmask, "reloaded topology")
}

func (b *Bridge) cmdShutdown(nick, hostmask, message string) {
	if !b.requireAdmin(nick, hostmask, message, "shut me down") {
		return
	}

	b.logCommand(hostmask, message)
	b.reply(nick, "Shutting down")

	if b.OnShutdown != nil {
		b.OnShutdown()
	}
}

// cmdSend offers a file from the data directory to nick over DCC
func (b *Bridge) cmdSend(nick, hostmask, message string) {
	if !b.requireAdmin(nick, hostmask, message, "send files") {
		return
	}
	parts := strings.SplitN(message, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		b.reply(nick, "Usage: !send <file>")
		return
	}
	if b.cfg.DCC.PublicAddress == "" {
		b.reply(nick, "DCC is not configured: no public address")
		return
	}

	name := strings.TrimSpace(parts[1])
	path, err := storage.Resolve(b.cfg.DataDir, name)
	if err != nil {
		b.reply(nick, fmt.Sprintf("Error: %v", err))
		return
	}
	file, err := os.Open(path)
	if err != nil {
		b.reply(nick, fmt.Sprintf("Error opening %s: %v", name, err))
		return
	}
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		file.Close()
		b.reply(nick, fmt.Sprintf("Error: %s is not a file", name))
		return
	}

	o, err := b.offer(nick, name, file, info.Size())
	if err != nil {
		file.Close()
		b.reply(nick, fmt.Sprintf("Error offering %s: %v", name, err))
		return
	}
	b.logCommand(hostmask, fmt.Sprintf("%s (port %d)", message, o.port))
}

// offer starts listening for nick and sends the DCC SEND request
func (b *Bridge) offer(nick, name string, file *os.File, size int64) (*offer, error) {
	transfer := dcc.NewTransfer(file, size)
	transfer.BufferSize = b.cfg.DCC.BufferSize
	transfer.TurboMode = b.cfg.DCC.Turbo
	transfer.SendAhead = !b.cfg.DCC.BlockingAcks

	conn := dcc.NewServerConnection(b.cfg.DCC.Port, transfer)
	conn.Timeout = b.cfg.DCC.Timeout()
	o := &offer{nick: nick, name: name, file: file, conn: conn}

	transfer.OnTransferComplete = func() {
		log.Printf("DCC transfer %s: sent %s to %s", transfer.ID, name, nick)
	}
	conn.OnDisconnected = func(reason error) {
		file.Close()
		b.mu.Lock()
		for port, pending := range b.offers {
			if pending == o {
				delete(b.offers, port)
			}
		}
		b.mu.Unlock()
		if reason != nil {
			log.Printf("DCC transfer %s to %s ended: %v", transfer.ID, nick, reason)
		}
	}

	if err := conn.Send(b.ctx); err != nil {
		return nil, err
	}
	o.port = conn.Port
	if addr, ok := conn.Addr().(*net.TCPAddr); ok {
		o.port = addr.Port
	}

	b.mu.Lock()
	b.offers[o.port] = o
	b.mu.Unlock()

	request := &messages.DccSendMessage{
		FileName: name,
		Address:  b.cfg.DCC.PublicAddress,
		Port:     o.port,
		Size:     size,
	}
	request.Targets = []string{nick}
	request.Turbo = transfer.TurboMode
	if err := b.client.Send(request); err != nil {
		conn.DisconnectForce()
		return nil, err
	}
	return o, nil
}
