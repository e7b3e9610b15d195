// Package console 实现开发者控制台
//
// 控制台命令直接调用开场控制器和会话的公开入口，不维护单独的状态。
// 输出使用 gookit/color 着色，写入任意 io.Writer（终端或游戏内日志）。
package console

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/gonewx/cellbreak/pkg/scenes"
	"github.com/gookit/color"
)

// ErrUnknownCommand 未注册的命令
var ErrUnknownCommand = errors.New("unknown command")

type command struct {
	usage string
	help  string
	run   func(args []string) error
}

// Console 开发者控制台
type Console struct {
	scene    *scenes.IntroScene
	out      io.Writer
	commands map[string]command

	styleOK    color.Style
	styleWarn  color.Style
	styleError color.Style
	styleName  color.Style
	styleDim   color.Style
}

// New 创建控制台
func New(scene *scenes.IntroScene, out io.Writer) *Console {
	c := &Console{
		scene:      scene,
		out:        out,
		styleOK:    color.Style{color.FgGreen},
		styleWarn:  color.Style{color.FgYellow, color.OpBold},
		styleError: color.Style{color.FgRed, color.OpBold},
		styleName:  color.Style{color.FgMagenta, color.OpBold},
		styleDim:   color.Style{color.FgGray},
	}
	c.commands = map[string]command{
		"restrain":    {"restrain", "re-attach the restraints and reset the intro", c.cmdRestrain},
		"unrestrain":  {"unrestrain", "break the restraints and hand control to the player", c.cmdUnrestrain},
		"resumeintro": {"resumeintro", "replay the intro from the first step", c.cmdResumeIntro},
		"skipintro":   {"skipintro", "stop the intro where it is", c.cmdSkipIntro},
		"save":        {"save <slot>", "save the session to a slot", c.cmdSave},
		"load":        {"load <slot>", "load a slot (ends the intro first)", c.cmdLoad},
		"slots":       {"slots", "list save slots", c.cmdSlots},
		"give":        {"give <weapon> [ammo]", "add a weapon and optional ammo", c.cmdGive},
		"use":         {"use <id> [input]", "interact with an object by id", c.cmdUse},
		"status":      {"status", "print player and intro state", c.cmdStatus},
		"help":        {"help", "list commands", c.cmdHelp},
	}
	return c
}

// Commands 返回排序后的命令名
func (c *Console) Commands() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute 执行一行命令
// 空行直接返回 nil；错误同时写入输出
func (c *Console) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := c.commands[name]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, name)
		c.fail(err)
		return err
	}

	log.Printf("[Console] > %s", line)
	if err := cmd.run(fields[1:]); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

func (c *Console) fail(err error) {
	fmt.Fprintln(c.out, c.styleError.Sprint("error: ")+err.Error())
}

func (c *Console) ok(format string, args ...interface{}) {
	fmt.Fprintln(c.out, c.styleOK.Sprintf(format, args...))
}

func (c *Console) warn(format string, args ...interface{}) {
	fmt.Fprintln(c.out, c.styleWarn.Sprintf(format, args...))
}

func (c *Console) cmdRestrain(_ []string) error {
	c.scene.Intro().Restrain()
	c.ok("player restrained")
	return nil
}

func (c *Console) cmdUnrestrain(_ []string) error {
	if !c.scene.EnterGameplay() {
		c.warn("player is already free")
		return nil
	}
	c.ok("restraints broken, controls enabled")
	return nil
}

func (c *Console) cmdResumeIntro(_ []string) error {
	if !c.scene.Intro().Resume() {
		c.warn("intro is already playing")
		return nil
	}
	c.ok("intro restarted")
	return nil
}

func (c *Console) cmdSkipIntro(_ []string) error {
	if !c.scene.Intro().Skip() {
		c.warn("intro is not playing")
		return nil
	}
	c.ok("intro skipped at step %d", c.scene.Intro().StepIndex())
	return nil
}

func slotArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one slot name")
	}
	return args[0], nil
}

func (c *Console) cmdSave(args []string) error {
	slot, err := slotArg(args)
	if err != nil {
		return err
	}
	if err := c.scene.SaveSlot(slot); err != nil {
		return err
	}
	c.ok("saved to %s", slot)
	return nil
}

func (c *Console) cmdLoad(args []string) error {
	slot, err := slotArg(args)
	if err != nil {
		return err
	}
	if err := c.scene.LoadSlot(slot); err != nil {
		return err
	}
	c.ok("loaded %s", slot)
	return nil
}

func (c *Console) cmdSlots(_ []string) error {
	slots := c.scene.Saves().ListSlots()
	if len(slots) == 0 {
		fmt.Fprintln(c.out, c.styleDim.Sprint("no saves"))
		return nil
	}
	for _, s := range slots {
		fmt.Fprintf(c.out, "%s  level %d  %s\n",
			c.styleName.Sprint(s.Name), s.Level, c.styleDim.Sprint(s.SavedAt.Format("2006-01-02 15:04")))
	}
	return nil
}

func (c *Console) cmdGive(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: give <weapon> [ammo]")
	}
	weapon := strings.ToLower(args[0])
	ammo := 0
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid ammo amount %q", args[1])
		}
		ammo = n
	}

	inv := &c.scene.Session().Player.Inventory
	added := inv.AddWeapon(weapon)
	if ammo > 0 {
		inv.AddAmmo(weapon, ammo)
	}

	if added {
		c.ok("gave %s (+%d ammo)", weapon, ammo)
	} else {
		c.ok("already had %s (+%d ammo)", weapon, ammo)
	}
	return nil
}

func (c *Console) cmdUse(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: use <id> [input]")
	}
	session := c.scene.Session()
	it, ok := session.FindInteractable(args[0])
	if !ok {
		return fmt.Errorf("no object %q in level %d", args[0], session.LevelID)
	}
	input := ""
	if len(args) == 2 {
		input = args[1]
	}
	result, ok := session.Interact(it, input)
	if !ok {
		c.warn("nothing happens")
		return nil
	}
	c.ok("%s", c.scene.Strings().Get(result.Message))
	return nil
}

func (c *Console) cmdStatus(_ []string) error {
	session := c.scene.Session()
	p := session.Player
	intro := c.scene.Intro()

	fmt.Fprintf(c.out, "%s %s step %d  authority %s\n",
		c.styleName.Sprint("intro"), intro.State(), intro.StepIndex(), p.Authority())
	fmt.Fprintf(c.out, "%s level %d  pos (%.2f, %.2f, %.2f)  hp %d  armor %d\n",
		c.styleName.Sprint("player"), session.LevelID, p.Position.X, p.Position.Y, p.Position.Z, p.Health, p.Armor)
	fmt.Fprintf(c.out, "%s restrained=%v controls=%v cutscene=%v broken=%v\n",
		c.styleName.Sprint("flags"), p.IsRestrained, p.ControlsEnabled, p.CutsceneDriven, c.scene.Restraint().AllBroken())

	weapons := make([]string, 0, len(p.Inventory.Weapons))
	for _, w := range p.Inventory.Weapons {
		weapons = append(weapons, fmt.Sprintf("%s(%d)", w, p.Inventory.Ammo[w]))
	}
	fmt.Fprintf(c.out, "%s %s  flags %s\n",
		c.styleName.Sprint("inventory"), strings.Join(weapons, " "), strings.Join(p.Inventory.FlagNames(), ","))
	if session.Objective != "" {
		fmt.Fprintf(c.out, "%s %s\n", c.styleName.Sprint("objective"), session.Objective)
	}
	return nil
}

func (c *Console) cmdHelp(_ []string) error {
	for _, name := range c.Commands() {
		cmd := c.commands[name]
		fmt.Fprintf(c.out, "  %-22s %s\n", cmd.usage, c.styleDim.Sprint(cmd.help))
	}
	return nil
}
