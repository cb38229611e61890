//go:build !linux && !windows

package exitguard

func (g *Guard) defaultPrimitives() []primitive {
	return nil
}
