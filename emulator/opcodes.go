package emulator

// execute applies a decoded instruction. The program counter already points
// past it.
func (c *CPU) execute(in Instruction) error {
	x, y := in.X, in.Y

	switch in.Op {
	case OpSYS: // 0NNN machine code routine, ignored
	case OpCLS: // 00E0 clear display
		c.disp.Clear()

	case OpRET: // 00EE return from subroutine
		r, err := c.popStack()
		if err != nil {
			return err
		}
		c.pc = r

	case OpJP: // 1NNN goto NNN
		c.pc = in.NNN

	case OpCALL: // 2NNN call NNN
		if err := c.pushStack(c.pc); err != nil {
			return err
		}
		c.pc = in.NNN

	case OpSEImm: // 3XNN if(Vx==NN)
		if c.v[x] == in.NN {
			c.pc += 2
		}

	case OpSNEImm: // 4XNN if(Vx!=NN)
		if c.v[x] != in.NN {
			c.pc += 2
		}

	case OpSEReg: // 5XY0 if(Vx==Vy)
		if c.v[x] == c.v[y] {
			c.pc += 2
		}

	case OpSNEReg: // 9XY0 if(Vx!=Vy)
		if c.v[x] != c.v[y] {
			c.pc += 2
		}

	case OpLDImm: // 6XNN Vx = NN
		c.v[x] = in.NN

	case OpADDImm: // 7XNN Vx += NN (carry flag is not changed)
		c.v[x] += in.NN

	case OpLDReg: // 8XY0 Vx=Vy
		c.v[x] = c.v[y]

	case OpOR: // 8XY1 Vx=Vx|Vy
		c.v[x] |= c.v[y]
		c.resetLogicFlag()

	case OpAND: // 8XY2 Vx=Vx&Vy
		c.v[x] &= c.v[y]
		c.resetLogicFlag()

	case OpXOR: // 8XY3 Vx=Vx^Vy
		c.v[x] ^= c.v[y]
		c.resetLogicFlag()

	case OpADDReg: // 8XY4 Vx += Vy
		sum := uint16(c.v[x]) + uint16(c.v[y])
		c.v[x] = uint8(sum)
		c.updateCarryFlag(sum > 0xff)

	case OpSUB: // 8XY5 Vx -= Vy
		noBorrow := c.v[x] >= c.v[y]
		c.v[x] -= c.v[y]
		c.updateCarryFlag(noBorrow)

	case OpSHR: // 8XY6 Vx>>=1
		src := c.shiftSource(x, y)
		c.v[x] = src >> 1
		c.v[0xf] = src & 0x01

	case OpSUBN: // 8XY7 Vx=Vy-Vx
		noBorrow := c.v[y] >= c.v[x]
		c.v[x] = c.v[y] - c.v[x]
		c.updateCarryFlag(noBorrow)

	case OpSHL: // 8XYE Vx<<=1
		src := c.shiftSource(x, y)
		c.v[x] = src << 1
		c.v[0xf] = (src >> 7) & 0x01

	case OpLDI: // ANNN I = NNN
		c.i = in.NNN

	case OpJPV0: // BNNN PC=V0+NNN
		base := c.v[0]
		if c.quirks.JumpWithVX {
			base = c.v[x]
		}
		c.pc = uint16(base) + in.NNN

	case OpRND: // CXNN Vx=rand()&NN
		c.v[x] = uint8(c.rand.Uint32()) & in.NN

	case OpDRW: // DXYN draw(Vx,Vy,N)
		rows, err := c.mem.Read(c.i, int(in.N))
		if err != nil {
			return err
		}
		collided := c.disp.DrawSprite(int(c.v[x]), int(c.v[y]), rows, c.quirks.WrapSprites)
		c.updateCarryFlag(collided)

	case OpSKP: // EX9E if(key()==Vx)
		if c.keys.IsPressed(c.v[x] & 0xf) {
			c.pc += 2
		}

	case OpSKNP: // EXA1 if(key()!=Vx)
		if !c.keys.IsPressed(c.v[x] & 0xf) {
			c.pc += 2
		}

	case OpLDVxDT: // FX07 Vx = get_delay()
		c.v[x] = c.delay.Get()

	case OpLDVxK: // FX0A Vx = get_key()
		c.waitKey(x)

	case OpLDDTVx: // FX15 delay_timer(Vx)
		c.delay.Set(c.v[x])

	case OpLDSTVx: // FX18 sound_timer(Vx)
		c.sound.Set(c.v[x])

	case OpADDI: // FX1E I +=Vx
		c.i += uint16(c.v[x])

	case OpLDF: // FX29 I=sprite_addr[Vx]
		c.i = FontOffset + uint16(c.v[x]&0xf)*FontSpriteBytes

	case OpLDB: // FX33 set_BCD(Vx)
		v := c.v[x]
		if err := c.mem.Write(c.i, []byte{v / 100, (v / 10) % 10, v % 10}); err != nil {
			return err
		}

	case OpLDStore: // FX55 reg_dump(Vx,&I)
		if err := c.mem.Write(c.i, c.v[:x+1]); err != nil {
			return err
		}
		c.advanceIndex(x)

	case OpLDLoad: // FX65 reg_load(Vx,&I)
		b, err := c.mem.Read(c.i, int(x)+1)
		if err != nil {
			return err
		}
		copy(c.v[:], b)
		c.advanceIndex(x)

	default:
		return unknown(in.Raw)
	}
	return nil
}

func (c *CPU) resetLogicFlag() {
	if !c.quirks.KeepFlagOnLogic {
		c.v[0xf] = 0
	}
}

func (c *CPU) shiftSource(x, y uint8) uint8 {
	if c.quirks.ShiftUsesVY {
		return c.v[y]
	}
	return c.v[x]
}

func (c *CPU) advanceIndex(x uint8) {
	if !c.quirks.KeepIndexOnLoadStore {
		c.i += uint16(x) + 1
	}
}
